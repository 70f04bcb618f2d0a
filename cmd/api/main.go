package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"startloft-api/internal/config"
	"startloft-api/internal/models"
	"startloft-api/internal/registration"
	"startloft-api/internal/replay"
	"startloft-api/internal/server"
	"startloft-api/internal/sheets"
	"startloft-api/internal/store"
	"startloft-api/internal/tgbot"
	"startloft-api/internal/tournament"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	log.Printf("mongo: connected to %s", cfg.DatabaseName)

	mirror := sheets.NewMirror(sheets.MirrorConfig{
		Enabled:         cfg.SheetsEnabled,
		CredentialsFile: cfg.SheetsCredentialsFile,
		SpreadsheetID:   cfg.SheetsSpreadsheetID,
		Worksheet:       cfg.SheetsWorksheet,
	})
	if !mirror.Enabled() {
		log.Println("sheets: integration disabled")
	}
	notifier := tgbot.New(cfg.TelegramToken, cfg.TelegramAdminChats)
	if !notifier.Enabled() {
		log.Println("tgbot: staff notifications disabled")
	}

	httpSrv := server.New(cfg, server.Deps{
		Registrations: registration.NewService(st, st, mirror, notifier),
		Tournaments:   tournament.NewService(st),
		Sync: func(ctx context.Context) (replay.Result, error) {
			return replay.Run(ctx, st, mirror, replay.Options{Delay: replay.DefaultDelay})
		},
		Club:       models.DefaultClubSettings(),
		Background: ctx,
	})

	go func() {
		log.Printf("HTTP listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := httpSrv.Shutdown(ctxTimeout); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := st.Close(ctxTimeout); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}

	log.Println("bye")
}
