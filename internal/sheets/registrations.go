package sheets

import (
	"context"
	"fmt"

	"startloft-api/internal/models"
	"startloft-api/internal/util"
)

// Headers is the first row of the registrations worksheet. Column order is
// the same as RegistrationRow.
var Headers = []interface{}{
	"Дата создания",
	"Категория",
	"Звание",
	"Город/Страна",
	"Название турнира",
	"ФИО",
	"Телефон",
	"ID",
	"Турнир ID",
}

func RegistrationRow(r models.Registration, tournamentName string) []interface{} {
	id := ""
	if !r.ID.IsZero() {
		id = r.ID.Hex()
	}
	return []interface{}{
		util.SheetTime(r.CreatedAt),
		r.Category,
		r.Rank,
		r.CityCountry,
		tournamentName,
		r.Fio,
		r.Phone,
		id,
		r.TournamentID,
	}
}

// AppendRegistration writes one row for r, creating the header row first if
// the worksheet does not start with it.
func (c *Client) AppendRegistration(ctx context.Context, r models.Registration, tournamentName string) error {
	ref, err := c.resolveSheet(ctx)
	if err != nil {
		return fmt.Errorf("resolve worksheet: %w", err)
	}
	if err := c.ensureHeaders(ctx, ref); err != nil {
		return fmt.Errorf("headers: %w", err)
	}
	if err := c.appendRow(ctx, ref.title, RegistrationRow(r, tournamentName)); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// ensureHeaders is check-then-write: two concurrent callers on a fresh sheet
// may both insert a header row.
func (c *Client) ensureHeaders(ctx context.Context, ref sheetRef) error {
	values, err := c.readRange(ctx, ref.title, "1:1")
	if err != nil {
		return err
	}
	first := ""
	if len(values) > 0 {
		first = get(values[0], 0)
	}
	if first == Headers[0] {
		return nil
	}
	if first != "" {
		// row 1 holds data, push it down
		if err := c.insertTopRow(ctx, ref.id); err != nil {
			return err
		}
	}
	return c.updateRow(ctx, ref.title, "A1", Headers)
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}
