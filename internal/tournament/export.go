package tournament

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"startloft-api/internal/apperr"
	"startloft-api/internal/util"
)

var ExportHeader = []string{
	"created_at",
	"fio",
	"birth_date",
	"phone",
	"category",
	"rank",
	"city_country",
	"comment",
	"status",
}

// ExportCSV writes every registration of the tournament, cancelled ones
// included, as CSV with a UTF-8 BOM so spreadsheet apps pick the encoding.
func (s *Service) ExportCSV(ctx context.Context, tournamentID string, w io.Writer) error {
	if _, err := s.Get(ctx, tournamentID); err != nil {
		return err
	}
	regs, err := s.store.ListRegistrations(ctx, tournamentID, 0)
	if err != nil {
		return apperr.Persistence(MsgStorage, err)
	}

	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range regs {
		line := []string{
			util.SheetTime(r.CreatedAt),
			r.Fio,
			r.BirthDate,
			r.Phone,
			r.Category,
			r.Rank,
			r.CityCountry,
			r.Comment,
			r.Status,
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
