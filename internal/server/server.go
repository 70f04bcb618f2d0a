package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"startloft-api/internal/config"
	"startloft-api/internal/models"
	"startloft-api/internal/replay"
)

type Registrar interface {
	Submit(ctx context.Context, req models.RegistrationRequest, meta models.RegistrationMeta) (models.RegistrationResponse, error)
}

type Tournaments interface {
	List(ctx context.Context, status string) ([]models.Tournament, error)
	Get(ctx context.Context, id string) (*models.Tournament, error)
	Create(ctx context.Context, d models.TournamentDraft) (models.TournamentCreated, error)
	Participants(ctx context.Context, tournamentID string) ([]models.Participant, error)
	ExportCSV(ctx context.Context, tournamentID string, w io.Writer) error
}

// SyncFunc replays stored registrations into the spreadsheet.
type SyncFunc func(ctx context.Context) (replay.Result, error)

type Deps struct {
	Registrations Registrar
	Tournaments   Tournaments
	Sync          SyncFunc
	Club          models.ClubSettings

	// Background is the parent context of work that outlives a request.
	Background context.Context
}

func New(cfg config.Config, deps Deps) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if deps.Background == nil {
		deps.Background = context.Background()
	}
	h := &handler{deps: deps}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Printf("server: trusted proxies %v: %v", cfg.TrustedProxies, err)
	}
	r.Use(gin.Recovery(), requestLogger(), cors.New(corsConfig(cfg)))

	r.GET("/", h.root)

	api := r.Group("/api")
	{
		admin := adminGuard(cfg.AdminToken)

		api.GET("/tournaments", h.listTournaments)
		api.POST("/tournaments", admin, h.createTournament)
		api.GET("/tournaments/:id", h.getTournament)
		api.GET("/tournaments/:id/registrations", h.listParticipants)
		api.GET("/tournaments/:id/registrations.csv", admin, h.exportRegistrations)

		api.POST("/registrations", rateLimit(newIPLimiter(cfg.RegistrationsPerMinute)), h.submitRegistration)

		api.GET("/club-settings", h.clubSettings)

		if cfg.AdminSyncToken != "" && deps.Sync != nil {
			api.POST("/admin/sheets/sync", adminGuard(cfg.AdminSyncToken), h.syncSheets)
		}
	}
	return r
}

func corsConfig(cfg config.Config) cors.Config {
	origins := []string{}
	for _, o := range cfg.Origins() {
		if strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://") {
			origins = append(origins, o)
			continue
		}
		log.Printf("server: skipping CORS origin %q without http(s) scheme", o)
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

type handler struct {
	deps    Deps
	syncing atomic.Bool
}
