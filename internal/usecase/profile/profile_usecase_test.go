package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository/memory"
	"github.com/google/uuid"
)

type fakeSigner struct {
	key         string
	contentType string
}

func (f *fakeSigner) PresignUpload(_ context.Context, key, contentType string) (string, string, time.Time, error) {
	f.key, f.contentType = key, contentType
	return "https://bucket.example/upload/" + key + "?sig=x", "https://cdn.example/" + key, time.Now().Add(15 * time.Minute), nil
}

type fakeBios struct{}

func (fakeBios) GenerateBio(_ context.Context, name string, interests []string, _ string) ([]string, error) {
	return []string{name + " loves " + strings.Join(interests, ", ")}, nil
}

func newUseCase() *ProfileUseCase {
	uc := NewProfileUseCase(memory.NewStore().Profiles(), &fakeSigner{}, fakeBios{})
	uc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return uc
}

func validRequest() *CreateProfileRequest {
	bio := "Coffee first."
	return &CreateProfileRequest{
		FullName:    "Maya Lind",
		DateOfBirth: "1996-03-16",
		Gender:      "female",
		Bio:         &bio,
		Interests:   []string{"coffee", "climbing", "film", "coffee"},
		LookingFor:  []string{"male"},
	}
}

func TestCreateAndGetProfile(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase()
	userID := uuid.New()

	created, err := uc.CreateProfile(ctx, userID, validRequest())
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if len(created.Interests) != 3 {
		t.Fatalf("expected duplicate interests removed, got %v", created.Interests)
	}
	if _, err := uc.CreateProfile(ctx, userID, validRequest()); !errors.Is(err, domain.ErrProfileAlreadyExists) {
		t.Fatalf("expected ErrProfileAlreadyExists, got %v", err)
	}

	got, err := uc.GetMyProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetMyProfile: %v", err)
	}
	// birthday is tomorrow
	if got.Age != 29 {
		t.Fatalf("expected age 29, got %d", got.Age)
	}
	if _, err := uc.GetProfileByUserID(ctx, uuid.New()); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestCreateProfile_Validation(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase()

	future := validRequest()
	future.DateOfBirth = "2030-01-01"
	if _, err := uc.CreateProfile(ctx, uuid.New(), future); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	long := validRequest()
	bio := strings.Repeat("é", domain.MaxBioLength+1)
	long.Bio = &bio
	if _, err := uc.CreateProfile(ctx, uuid.New(), long); !errors.Is(err, domain.ErrBioTooLong) {
		t.Fatalf("expected ErrBioTooLong, got %v", err)
	}

	if _, err := uc.CreateProfile(ctx, uuid.Nil, validRequest()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase()
	userID := uuid.New()
	if _, err := uc.CreateProfile(ctx, userID, validRequest()); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	name := "Maya L."
	avatar := "https://cdn.example/avatars/x.png"
	updated, err := uc.UpdateProfile(ctx, userID, &UpdateProfileRequest{FullName: &name, AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FullName != name || updated.AvatarURL == nil || *updated.AvatarURL != avatar {
		t.Fatalf("fields not updated: %+v", updated)
	}
	if updated.Bio == nil || *updated.Bio != "Coffee first." {
		t.Fatalf("untouched fields must survive a partial update")
	}

	if _, err := uc.UpdateProfile(ctx, uuid.New(), &UpdateProfileRequest{FullName: &name}); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestAvatarUploadURL(t *testing.T) {
	ctx := context.Background()
	signer := &fakeSigner{}
	uc := NewProfileUseCase(memory.NewStore().Profiles(), signer, nil)
	userID := uuid.New()

	resp, err := uc.AvatarUploadURL(ctx, userID, "image/png")
	if err != nil {
		t.Fatalf("AvatarUploadURL: %v", err)
	}
	if !strings.HasPrefix(signer.key, "avatars/"+userID.String()+"/") || !strings.HasSuffix(signer.key, ".png") {
		t.Fatalf("unexpected object key %q", signer.key)
	}
	if resp.PublicURL != "https://cdn.example/"+signer.key || resp.MaxBytes != MaxAvatarBytes {
		t.Fatalf("unexpected response %+v", resp)
	}

	_, err = uc.AvatarUploadURL(ctx, userID, "application/pdf")
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := NewProfileUseCase(memory.NewStore().Profiles(), nil, nil).AvatarUploadURL(ctx, userID, "image/png"); !errors.Is(err, ErrFeatureUnavailable) {
		t.Fatalf("expected ErrFeatureUnavailable, got %v", err)
	}
	if _, err := uc.SuggestBios(ctx, userID); !errors.Is(err, ErrFeatureUnavailable) {
		t.Fatalf("expected ErrFeatureUnavailable, got %v", err)
	}
}

func TestSuggestBios(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase()
	userID := uuid.New()
	if _, err := uc.CreateProfile(ctx, userID, validRequest()); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	bios, err := uc.SuggestBios(ctx, userID)
	if err != nil || len(bios) != 1 || !strings.HasPrefix(bios[0], "Maya Lind loves coffee") {
		t.Fatalf("unexpected bios %v (%v)", bios, err)
	}
}
