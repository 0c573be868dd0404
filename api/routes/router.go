package routes

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/api/controllers"
	"github.com/vidora/vidora-backend/api/middleware"
	"github.com/vidora/vidora-backend/internal/deletion"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/internal/upload"
	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/logger"
)

// formOverheadBytes covers multipart boundaries and text fields on top of
// the file ceilings.
const formOverheadBytes = 1 << 20

// UploadService is implemented by *upload.Coordinator.
type UploadService interface {
	PublishVideo(ctx context.Context, in upload.PublishVideoInput) (*models.Video, error)
	ReplaceVideoThumbnail(ctx context.Context, in upload.ReplaceThumbnailInput) (*models.Video, error)
	CreateTweet(ctx context.Context, in upload.CreateTweetInput) (*models.Tweet, error)
	ReplaceAvatar(ctx context.Context, in upload.ReplaceAvatarInput) (*models.Account, error)
}

// DeletionService is implemented by *deletion.Coordinator.
type DeletionService interface {
	DeleteVideo(ctx context.Context, videoID, actorID primitive.ObjectID) (*deletion.Report, error)
	DeleteTweet(ctx context.Context, tweetID, actorID primitive.ObjectID) (*deletion.Report, error)
}

// Stager is implemented by *staging.Area.
type Stager interface {
	StageFileHeader(ctx context.Context, role enums.FileRole, fh *multipart.FileHeader) (staging.File, error)
	Remove(ctx context.Context, path string) error
}

// RateLimiter is implemented by *redis.Client.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps are the collaborators the router wires into controllers. Limiter and
// Gatherer are optional.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Uploads  UploadService
	Deletes  DeletionService
	Staging  Stager
	Limiter  RateLimiter
	Gatherer prometheus.Gatherer
	Ready    map[string]controllers.Pinger
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, d.Ready, logg))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	videoFormBytes := cfg.Media.VideoMaxBytes() + cfg.Media.ImageMaxBytes() + formOverheadBytes
	imageFormBytes := cfg.Media.ImageMaxBytes() + formOverheadBytes

	uploadLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("uploads", time.Minute, cfg.Media.UploadsPerMinute),
		d.Limiter,
		logg,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/media/normalize", controllers.MediaNormalize(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/videos", func(r chi.Router) {
				r.With(uploadLimit).Post("/", controllers.VideoPublish(d.Uploads, d.Staging, videoFormBytes, logg))
				r.With(uploadLimit).Patch("/{videoId}", controllers.VideoUpdate(d.Uploads, d.Staging, imageFormBytes, logg))
				r.Delete("/{videoId}", controllers.VideoDelete(d.Deletes, logg))
			})

			r.Route("/tweets", func(r chi.Router) {
				r.With(uploadLimit).Post("/", controllers.TweetCreate(d.Uploads, d.Staging, imageFormBytes, logg))
				r.Delete("/{tweetId}", controllers.TweetDelete(d.Deletes, logg))
			})

			r.With(uploadLimit).Patch("/accounts/avatar", controllers.AccountAvatarUpdate(d.Uploads, d.Staging, imageFormBytes, logg))
		})
	})

	return r
}
