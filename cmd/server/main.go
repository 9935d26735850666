package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpadapter "harvest/internal/adapters/http"
	"harvest/internal/adapters/memory"
	pg "harvest/internal/adapters/postgres"
	"harvest/internal/adapters/whoisx"
	"harvest/internal/config"
	"harvest/internal/ports"
	collectorsvc "harvest/internal/services/collectors"
	sitesvc "harvest/internal/services/sites"
	"harvest/internal/workers/scraper"
	"harvest/internal/workers/whoiser"
)

// store is the slice of repositories both adapters provide.
type store interface {
	Domains() ports.DomainRepository
	Collectors() ports.CollectorRepository
	Contacts() ports.ContactRepository
}

func main() {
	initLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store
	switch cfg.Store {
	case "memory":
		st = memory.NewStore()
		log.Warn().Msg("using in-memory store; nothing is persisted")
	default:
		if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect error")
		}
		defer db.Close()
		st = db
	}

	scraperEngine := scraper.New(st.Collectors(), st.Contacts(), cfg.UserAgent)
	whoisEngine := whoiser.New(st.Collectors(), st.Contacts(), whoisx.New())
	dispatcher := collectorsvc.New(ctx, st.Collectors(), scraperEngine, whoisEngine)
	siteSvc := sitesvc.New(st.Domains(), st.Collectors(), dispatcher)

	r := chi.NewRouter()
	r.Mount("/", httpadapter.New(siteSvc, dispatcher, st.Contacts()).Routes())

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", cfg.ListenAddr).Str("store", cfg.Store).Msg("listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server error")
	}
}

func initLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}
	log.Logger = log.With().Str("service", "harvest").Logger()
}
