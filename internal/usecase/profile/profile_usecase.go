package profile

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/google/uuid"
)

const MaxAvatarBytes = 5 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// AvatarSigner issues direct-to-storage upload URLs.
type AvatarSigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (uploadURL, publicURL string, expiresAt time.Time, err error)
}

// BioGenerator drafts profile bios.
type BioGenerator interface {
	GenerateBio(ctx context.Context, fullName string, interests []string, location string) ([]string, error)
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	signer      AvatarSigner
	bios        BioGenerator
	now         func() time.Time
}

// NewProfileUseCase wires the profile flows. signer and bios may be nil, in
// which case the dependent operations report the feature as unavailable.
func NewProfileUseCase(
	profileRepo repository.ProfileRepository,
	signer AvatarSigner,
	bios BioGenerator,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		signer:      signer,
		bios:        bios,
		now:         time.Now,
	}
}

var ErrFeatureUnavailable = errors.New("feature is not configured")

// CreateProfileRequest represents profile setup
type CreateProfileRequest struct {
	FullName    string   `json:"full_name" binding:"required,min=2,max=100"`
	DateOfBirth string   `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Gender      string   `json:"gender" binding:"required,max=32"`
	Bio         *string  `json:"bio" binding:"omitempty,max=500"`
	Location    *string  `json:"location" binding:"omitempty,max=100"`
	Interests   []string `json:"interests" binding:"required,min=3,max=10,dive,min=1,max=40"`
	LookingFor  []string `json:"looking_for" binding:"required,min=1,max=5,dive,min=1,max=32"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	FullName   *string   `json:"full_name" binding:"omitempty,min=2,max=100"`
	Bio        *string   `json:"bio" binding:"omitempty,max=500"`
	Location   *string   `json:"location" binding:"omitempty,max=100"`
	AvatarURL  *string   `json:"avatar_url" binding:"omitempty,url,max=500"`
	Interests  *[]string `json:"interests" binding:"omitempty,min=3,max=10,dive,min=1,max=40"`
	LookingFor *[]string `json:"looking_for" binding:"omitempty,min=1,max=5,dive,min=1,max=32"`
}

// ProfileResponse represents a profile with computed age
type ProfileResponse struct {
	*domain.Profile
	Age int `json:"age"`
}

// AvatarUploadResponse tells the client where to PUT the image
type AvatarUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxBytes  int64     `json:"max_bytes"`
}

// GetMyProfile returns current user's profile
func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.GetProfileByUserID(ctx, userID)
}

// GetProfileByUserID returns profile by user ID with calculated age
func (uc *ProfileUseCase) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{Profile: profile, Age: profile.Age(uc.now())}, nil
}

// CreateProfile creates the profile once, at setup
func (uc *ProfileUseCase) CreateProfile(ctx context.Context, userID uuid.UUID, req *CreateProfileRequest) (*domain.Profile, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil || dob.After(uc.now()) {
		return nil, domain.ErrInvalidInput
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > domain.MaxBioLength {
		return nil, domain.ErrBioTooLong
	}

	profile := &domain.Profile{
		ID:          uuid.New(),
		UserID:      userID,
		FullName:    req.FullName,
		Bio:         req.Bio,
		DateOfBirth: dob,
		Gender:      req.Gender,
		Interests:   dedupe(req.Interests),
		LookingFor:  dedupe(req.LookingFor),
		Location:    req.Location,
	}
	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrProfileAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile updates user profile
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*domain.Profile, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > domain.MaxBioLength {
			return nil, domain.ErrBioTooLong
		}
		profile.Bio = req.Bio
	}
	if req.Location != nil {
		profile.Location = req.Location
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}
	if req.Interests != nil {
		profile.Interests = dedupe(*req.Interests)
	}
	if req.LookingFor != nil {
		profile.LookingFor = dedupe(*req.LookingFor)
	}

	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// AvatarUploadURL issues a presigned upload URL for a new avatar.
func (uc *ProfileUseCase) AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string) (*AvatarUploadResponse, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, &domain.Error{Kind: domain.KindValidation, Message: "invalid file type: upload a JPG, PNG, WebP or GIF image"}
	}
	if uc.signer == nil {
		return nil, ErrFeatureUnavailable
	}

	key := fmt.Sprintf("avatars/%s/%d-%s.%s", userID, uc.now().Unix(), uuid.NewString()[:8], ext)
	uploadURL, publicURL, expiresAt, err := uc.signer.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign avatar upload: %w", err)
	}
	return &AvatarUploadResponse{
		UploadURL: uploadURL,
		PublicURL: publicURL,
		ExpiresAt: expiresAt,
		MaxBytes:  MaxAvatarBytes,
	}, nil
}

// SuggestBios drafts bio options from the user's own profile.
func (uc *ProfileUseCase) SuggestBios(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if uc.bios == nil {
		return nil, ErrFeatureUnavailable
	}
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	location := ""
	if profile.Location != nil {
		location = *profile.Location
	}
	return uc.bios.GenerateBio(ctx, profile.FullName, profile.Interests, location)
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
