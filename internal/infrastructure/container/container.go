package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/config"
	"github.com/gdugdh24/speeddate-backend/internal/delivery/http"
	"github.com/gdugdh24/speeddate-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/speeddate-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/infrastructure/database"
	"github.com/gdugdh24/speeddate-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/speeddate-backend/internal/infrastructure/notify"
	"github.com/gdugdh24/speeddate-backend/internal/infrastructure/server"
	"github.com/gdugdh24/speeddate-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/speeddate-backend/internal/realtime"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/gdugdh24/speeddate-backend/internal/repository/memory"
	"github.com/gdugdh24/speeddate-backend/internal/repository/postgres"
	redisrepo "github.com/gdugdh24/speeddate-backend/internal/repository/redis"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/auth"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/conversation"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/event"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/feed"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/match"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/profile"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	DB        *sqlx.DB
	Redis     *redis.Client
	Server    *server.Server
	Gemini    *gemini.GeminiClient
	Publisher *notify.Publisher

	limiter   *middleware.LimiterStore
	stopRelay context.CancelFunc
	relayDone chan struct{}
}

type repositories struct {
	profiles      repository.ProfileRepository
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	matches       repository.MatchRepository
	messages      repository.MessageRepository
	revocations   repository.TokenRevocationRepository
}

// NewContainer creates a new dependency injection container. Optional
// integrations (Gemini, NATS, S3) are skipped with a warning when they are
// not configured or cannot be reached.
func NewContainer(ctx context.Context, cfg *config.Config) (_ *Container, err error) {
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if cfg.UsesRedis() {
		if c.Redis, err = database.NewRedisClient(ctx, &cfg.Redis); err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	repos, err := c.initRepositories(ctx)
	if err != nil {
		return nil, err
	}

	broker := c.initBroker()

	var icebreakers match.IcebreakerGenerator = gemini.FallbackGenerator{}
	var bios profile.BioGenerator
	if cfg.GeminiAPIKey != "" {
		geminiClient, gerr := gemini.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if gerr != nil {
			slog.Warn("gemini client unavailable, using fallback icebreakers", "error", gerr)
		} else {
			c.Gemini = geminiClient
			icebreakers = geminiClient
			bios = geminiClient
		}
	}

	var notifier match.Notifier
	if cfg.NATSURL != "" {
		publisher, nerr := notify.NewPublisher(ctx, cfg.NATSURL)
		if nerr != nil {
			slog.Warn("nats unavailable, match notifications disabled", "error", nerr)
		} else {
			c.Publisher = publisher
			notifier = publisher
		}
	}

	var signer profile.AvatarSigner
	if cfg.Storage.Bucket != "" {
		s3Signer, serr := storage.NewS3Signer(ctx, &cfg.Storage)
		if serr != nil {
			slog.Warn("s3 unavailable, avatar uploads disabled", "error", serr)
		} else {
			signer = s3Signer
		}
	}

	// Initialize use cases
	tokenService := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, repos.revocations)
	profileUseCase := profile.NewProfileUseCase(repos.profiles, signer, bios)
	eventUseCase := event.NewEventUseCase(repos.events, repos.registrations)
	feedUseCase := feed.NewFeedUseCase(repos.registrations, repos.profiles, repos.matches)
	matchUseCase := match.NewMatchUseCase(
		repos.matches,
		repos.registrations,
		repos.profiles,
		repos.events,
		notifier,
		icebreakers,
	)
	conversationUseCase := conversation.NewConversationUseCase(
		repos.matches,
		repos.messages,
		repos.profiles,
		repos.events,
		broker,
	)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	rpm := cfg.HTTP.RateLimitPerMinute
	c.limiter = middleware.NewLimiterStore(rpm, rpm/4+1, time.Minute)

	router := http.NewRouter(
		handler.NewAuthHandler(tokenService, !cfg.IsProduction()),
		handler.NewProfileHandler(profileUseCase),
		handler.NewEventHandler(eventUseCase, feedUseCase),
		handler.NewMatchHandler(matchUseCase),
		handler.NewConversationHandler(conversationUseCase),
		handler.NewStreamHandler(conversationUseCase, cfg.HTTP.CORSAllowedOrigins),
		authMiddleware,
		c.limiter,
	)

	c.Server = server.NewServer(&cfg.Server, cfg.HTTP.CORSAllowedOrigins, router.Setup())
	return c, nil
}

func (c *Container) initRepositories(ctx context.Context) (*repositories, error) {
	if c.Config.StorageType == config.StorageMemory {
		store := memory.NewStore()
		seedEvents(store, time.Now())
		slog.Warn("using in-memory storage; data is lost on restart")
		revocations := memory.NewRevocationRepository()
		if c.Redis != nil {
			revocations = redisrepo.NewRevocationRepository(c.Redis)
		}
		return &repositories{
			profiles:      store.Profiles(),
			events:        store.Events(),
			registrations: store.Registrations(),
			matches:       store.Matches(),
			messages:      store.Messages(),
			revocations:   revocations,
		}, nil
	}

	db, err := database.NewPostgresDB(ctx, &c.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	return &repositories{
		profiles:      postgres.NewProfileRepository(db),
		events:        postgres.NewEventRepository(db),
		registrations: postgres.NewRegistrationRepository(db),
		matches:       postgres.NewMatchRepository(db),
		messages:      postgres.NewMessageRepository(db),
		revocations:   redisrepo.NewRevocationRepository(c.Redis),
	}, nil
}

// initBroker returns the local hub, or a Redis-backed broker whose relay runs
// until Close.
func (c *Container) initBroker() realtime.Broker {
	hub := realtime.NewHub(realtime.DefaultBuffer)
	if c.Config.RealtimeBackend != config.RealtimeRedis {
		return hub
	}

	broker := realtime.NewRedisBroker(c.Redis, hub)
	relayCtx, cancel := context.WithCancel(context.Background())
	c.stopRelay = cancel
	c.relayDone = make(chan struct{})
	go func() {
		defer close(c.relayDone)
		if err := broker.Run(relayCtx); err != nil {
			slog.Error("redis message relay stopped", "error", err)
		}
	}()
	return broker
}

// seedEvents gives the in-memory mode something to register for, since
// events are created by organizers outside this service.
func seedEvents(store *memory.Store, now time.Time) {
	day := now.Truncate(24 * time.Hour)
	samples := []struct {
		title    string
		location string
		offset   time.Duration
		capacity int
		price    float64
	}{
		{"Friday Evening Speed Dating", "Rooftop Bar, Downtown", 3*24*time.Hour + 19*time.Hour, 20, 25},
		{"Book Lovers Mixer", "City Library Cafe", 7*24*time.Hour + 18*time.Hour, 16, 15},
		{"Outdoor Sunday Meetup", "Riverside Park", 10*24*time.Hour + 12*time.Hour, 30, 0},
	}
	for _, s := range samples {
		store.PutEvent(&domain.Event{
			ID:        uuid.New(),
			Title:     s.title,
			Location:  s.location,
			Date:      day.Add(s.offset),
			Capacity:  s.capacity,
			Price:     s.price,
			Status:    domain.EventUpcoming,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
}

// Close releases every resource the container opened.
func (c *Container) Close() error {
	var errs []error

	if c.stopRelay != nil {
		c.stopRelay()
		<-c.relayDone
	}
	if c.limiter != nil {
		c.limiter.Stop()
	}
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gemini client: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
