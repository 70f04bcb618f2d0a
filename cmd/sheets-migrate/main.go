package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"startloft-api/internal/config"
	"startloft-api/internal/replay"
	"startloft-api/internal/sheets"
	"startloft-api/internal/store"
)

var (
	dryRun       bool
	limit        int64
	delay        time.Duration
	tournamentID string
)

var rootCmd = &cobra.Command{
	Use:   "sheets-migrate",
	Short: "Copy stored registrations from MongoDB into the Google Sheets worksheet",
	Long: `Replays registrations from MongoDB into the configured spreadsheet in
creation order. Settings come from the same environment (and .env file) as the API.`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print what would be migrated")
	rootCmd.Flags().Int64Var(&limit, "limit", 0, "migrate at most N records (0 = all)")
	rootCmd.Flags().DurationVar(&delay, "delay", replay.DefaultDelay, "minimum spacing between writes to stay under API quotas (0 disables)")
	rootCmd.Flags().StringVar(&tournamentID, "tournament", "", "only migrate registrations of this tournament id")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	out := cmd.OutOrStdout()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if limit < 0 {
		return errors.New("--limit must not be negative")
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Миграция регистраций в Google Sheets")
	fmt.Fprintln(out, rule)

	if !cfg.SheetsEnabled {
		return errors.New("google sheets integration is disabled, set GOOGLE_SHEETS_ENABLED=true")
	}
	if cfg.SheetsSpreadsheetID == "" {
		return errors.New("GOOGLE_SHEETS_SPREADSHEET_ID is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "\n📊 Подключение к MongoDB...")
	st, err := store.New(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(closeCtx)
	}()

	mirror := sheets.NewMirror(sheets.MirrorConfig{
		Enabled:         cfg.SheetsEnabled,
		CredentialsFile: cfg.SheetsCredentialsFile,
		SpreadsheetID:   cfg.SheetsSpreadsheetID,
		Worksheet:       cfg.SheetsWorksheet,
	})
	fmt.Fprintln(out, "📊 Тестирование подключения к Google Sheets...")
	title, err := mirror.Ping(ctx)
	if err != nil {
		return fmt.Errorf("google sheets: %w", err)
	}
	fmt.Fprintf(out, "✅ Подключение успешно: %s\n\n", title)

	if limit > 0 {
		fmt.Fprintf(out, "⚠️  Ограничение: будет обработано максимум %d записей\n", limit)
	}
	if dryRun {
		fmt.Fprintln(out, "\n🔍 DRY RUN MODE - данные НЕ будут записаны в Google Sheets")
	} else {
		fmt.Fprintln(out, "\n⚡ Начинаем миграцию...")
	}

	res, err := replay.Run(ctx, st, mirror, replay.Options{
		DryRun:       dryRun,
		Limit:        limit,
		Delay:        delay,
		TournamentID: tournamentID,
		Out:          out,
	})

	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "Результаты миграции")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "📈 Найдено регистраций: %d\n", res.Total)
	fmt.Fprintf(out, "✅ Успешно обработано: %d\n", res.Succeeded)
	if !dryRun {
		fmt.Fprintf(out, "❌ Ошибок: %d\n", res.Failed)
	}
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", res.Failed, res.Processed)
	}
	return nil
}
