package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notepin/notepin/broker"
	"notepin/notepin/config"
	"notepin/notepin/database"
	"notepin/notepin/routes"
	"notepin/notepin/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	config.SetupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	feed := broker.Connect(cfg.NATSURL)
	defer feed.Close()

	noteService := services.NewNoteService(cfg.SanitizeBody)
	services.NoteServiceInstance = noteService
	trashService := services.NewTrashService(noteService)
	services.TrashServiceInstance = trashService

	eventHandlerService := services.NewEventHandlerService(db, feed, cfg.EventPollInterval)
	eventHandlerService.Start()
	defer eventHandlerService.Stop()

	liveQueryService := services.NewLiveQueryService(db, noteService)
	if err := liveQueryService.Start(feed); err != nil {
		log.Fatal().Err(err).Msg("failed to start live queries")
	}
	defer liveQueryService.Stop()

	webSocketService := services.NewWebSocketService(liveQueryService)
	webSocketService.Start()
	defer webSocketService.Stop()

	router := routes.NewRouter(routes.Dependencies{
		Config:           cfg,
		DB:               db,
		NoteService:      noteService,
		TrashService:     trashService,
		WebSocketService: webSocketService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("API server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shut down")
	}
}
