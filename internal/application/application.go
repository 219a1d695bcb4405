package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/config"
	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/repository"
	"github.com/psds-microservice/helpdesk-service/internal/router"
	"github.com/psds-microservice/helpdesk-service/internal/service"
	"github.com/psds-microservice/helpdesk-service/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// API приложение: HTTP сервер (режим api).
type API struct {
	cfg      *config.Config
	log      zerolog.Logger
	httpSrv  *http.Server
	producer *kafka.Producer
}

// NewAPI создаёт приложение для режима api.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.AppEnv)

	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	ticketRepo := repository.NewTicketRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	if err := ensureDefaultAdmin(adminRepo, cfg, log); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	producer := kafka.NewProducer(kafka.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopicTicket)
	ticketSvc := service.NewTicketService(ticketRepo, producer)

	ticketHandler := handler.NewTicketHandler(ticketSvc, log)
	authHandler := handler.NewAuthHandler(adminRepo, cfg.JWTSecret, log)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(ticketHandler, authHandler, cfg.JWTSecret),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		log:      log,
		httpSrv:  httpSrv,
		producer: producer,
	}, nil
}

// ensureDefaultAdmin seeds the first admin account when the table is empty so
// a fresh install is usable out of the box.
func ensureDefaultAdmin(admins *repository.AdminRepository, cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := admins.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := admins.Create(ctx, &model.Admin{
		Username:     cfg.AdminUsername,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}
	log.Info().Str("username", cfg.AdminUsername).Msg("bootstrapped default admin account")
	return nil
}

// Run запускает HTTP сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info().Str("addr", a.httpSrv.Addr).Msg("HTTP server listening")
	a.log.Info().Msgf("  Swagger UI:    %s/swagger", base)
	a.log.Info().Msgf("  Health:        %s/health", base)
	a.log.Info().Msgf("  Ready:         %s/ready", base)
	a.log.Info().Msgf("  Submit ticket: POST %s/submit-ticket", base)
	a.log.Info().Msgf("  Admin API:     %s/api/", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error().Err(err).Msg("http")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Error().Err(err).Msg("kafka close")
	}
	return nil
}
