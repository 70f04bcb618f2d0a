// Package replay copies stored registrations into the spreadsheet, for
// back-filling a new sheet or recovering rows the live mirror missed.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"startloft-api/internal/models"
	"startloft-api/internal/util"
)

const (
	UnknownTournament = "Неизвестный турнир"
	DefaultDelay      = 500 * time.Millisecond
)

type Source interface {
	CountRegistrations(ctx context.Context, tournamentID string) (int64, error)
	ListRegistrations(ctx context.Context, tournamentID string, limit int64) ([]models.Registration, error)
	FindTournament(ctx context.Context, id string) (*models.Tournament, error)
}

type Sink interface {
	AppendRegistration(ctx context.Context, r models.Registration, tournamentName string) (bool, error)
}

type Options struct {
	DryRun bool
	// Limit caps the number of records; 0 means all.
	Limit int64
	// Delay is the minimum spacing between two writes. Zero or negative
	// disables pacing.
	Delay time.Duration
	// TournamentID restricts the replay to one tournament when set.
	TournamentID string
	// Out receives one progress line per record.
	Out io.Writer
}

type Result struct {
	Total     int64
	Processed int
	Succeeded int
	Failed    int
}

// Run walks stored registrations in creation order and appends each to sink.
// Record failures are counted, not returned; the error is for the source
// failing or ctx ending.
func Run(ctx context.Context, src Source, sink Sink, opts Options) (Result, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	var pace *rate.Limiter
	if opts.Delay > 0 && !opts.DryRun {
		pace = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	var res Result
	total, err := src.CountRegistrations(ctx, opts.TournamentID)
	if err != nil {
		return res, fmt.Errorf("count registrations: %w", err)
	}
	res.Total = total
	if total == 0 {
		return res, nil
	}

	regs, err := src.ListRegistrations(ctx, opts.TournamentID, opts.Limit)
	if err != nil {
		return res, fmt.Errorf("list registrations: %w", err)
	}

	titles := map[string]string{}
	for _, r := range regs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if pace != nil {
			if err := pace.Wait(ctx); err != nil {
				return res, err
			}
		}
		res.Processed++
		title := resolveTitle(ctx, src, titles, r.TournamentID)

		if opts.DryRun {
			fmt.Fprintf(out, "[%d] %s | %s | %s | %s\n", res.Processed, r.Fio, r.Phone, title, r.CreatedAt.UTC().Format(util.DateLayout))
			res.Succeeded++
			continue
		}

		ok, err := sink.AppendRegistration(ctx, r, title)
		switch {
		case err != nil:
			fmt.Fprintf(out, "❌ [%d/%d] %s → %v\n", res.Processed, total, r.Fio, err)
			res.Failed++
		case !ok:
			fmt.Fprintf(out, "❌ [%d/%d] %s → mirror disabled\n", res.Processed, total, r.Fio)
			res.Failed++
		default:
			fmt.Fprintf(out, "✅ [%d/%d] %s → %s\n", res.Processed, total, r.Fio, title)
			res.Succeeded++
		}
	}
	return res, nil
}

func resolveTitle(ctx context.Context, src Source, cache map[string]string, id string) string {
	if title, ok := cache[id]; ok {
		return title
	}
	title := UnknownTournament
	t, err := src.FindTournament(ctx, id)
	if err == nil && t != nil && t.Title != "" {
		title = t.Title
	}
	if errors.Is(err, context.Canceled) {
		// not cached, the run is stopping anyway
		return title
	}
	cache[id] = title
	return title
}
