package models

import (
	"strings"
	"time"

	"startloft-api/internal/apperr"
	"startloft-api/internal/util"
)

// TournamentDraft is the admin input for a new tournament. Pointer fields are
// required; everything else falls back to a default.
type TournamentDraft struct {
	Slug             string        `json:"slug"`
	Title            string        `json:"title"`
	Subtitle         string        `json:"subtitle"`
	Status           string        `json:"status"`
	RegistrationOpen *bool         `json:"registration_open"`
	Dates            *DraftDates   `json:"dates"`
	Location         *DraftPlace   `json:"location"`
	Fees             *DraftFees    `json:"fees"`
	Prize            *DraftPrize   `json:"prize"`
	Brackets         []Bracket     `json:"brackets"`
	PosterImageURL   string        `json:"poster_image_url"`
	Description      *string       `json:"description"`
	FormatText       *string       `json:"format_text"`
	RequiredFields   []string      `json:"required_fields"`
	MaxParticipants  int           `json:"max_participants"`
	Contact          *DraftContact `json:"contact"`
	IsFeatured       bool          `json:"is_featured"`
}

type DraftDates struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartTime string `json:"start_time"`
}

type DraftPlace struct {
	City      string `json:"city"`
	Country   string `json:"country"`
	VenueName string `json:"venue_name"`
	Address   string `json:"address"`
}

type DraftFees struct {
	EntryFee *int   `json:"entry_fee"`
	Currency string `json:"currency"`
}

type DraftPrize struct {
	Fund       *int        `json:"fund"`
	Currency   string      `json:"currency"`
	PrizesText string      `json:"prizes_text"`
	Items      []PrizeItem `json:"items"`
}

type DraftContact struct {
	Phone         string `json:"phone"`
	WhatsappPhone string `json:"whatsapp_phone"`
}

// Build checks required fields, applies defaults and stamps both timestamps
// with now.
func (d TournamentDraft) Build(now time.Time) (Tournament, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Tournament{}, missing("title")
	}

	slug := strings.TrimSpace(d.Slug)
	if slug == "" {
		slug = util.Slugify(title)
	}

	status := strings.TrimSpace(d.Status)
	if status == "" {
		status = StatusDraft
	}
	if !IsTournamentStatus(status) {
		return Tournament{}, apperr.Validation("status", "status must be one of draft, published, finished")
	}

	if d.RegistrationOpen == nil {
		return Tournament{}, missing("registration_open")
	}

	if d.Dates == nil {
		return Tournament{}, missing("dates")
	}
	if err := checkDate("dates.start", d.Dates.Start); err != nil {
		return Tournament{}, err
	}
	if err := checkDate("dates.end", d.Dates.End); err != nil {
		return Tournament{}, err
	}
	if d.Dates.StartTime != "" {
		if _, err := time.Parse(util.ClockLayout, d.Dates.StartTime); err != nil {
			return Tournament{}, apperr.Validation("dates.start_time", "expected HH:MM")
		}
	}

	if d.Location == nil {
		return Tournament{}, missing("location")
	}
	for _, f := range []struct{ name, value string }{
		{"location.city", d.Location.City},
		{"location.country", d.Location.Country},
		{"location.venue_name", d.Location.VenueName},
		{"location.address", d.Location.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			return Tournament{}, missing(f.name)
		}
	}

	if d.Fees == nil || d.Fees.EntryFee == nil {
		return Tournament{}, missing("fees.entry_fee")
	}
	currency := strings.TrimSpace(d.Fees.Currency)
	if currency == "" {
		currency = "KZT"
	}

	if d.Prize == nil || d.Prize.Fund == nil {
		return Tournament{}, missing("prize.fund")
	}
	if strings.TrimSpace(d.Prize.Currency) == "" {
		return Tournament{}, missing("prize.currency")
	}
	items := d.Prize.Items
	if items == nil {
		items = []PrizeItem{}
	}

	if d.Description == nil {
		return Tournament{}, missing("description")
	}
	if d.FormatText == nil {
		return Tournament{}, missing("format_text")
	}
	if d.RequiredFields == nil {
		return Tournament{}, missing("required_fields")
	}

	if d.Contact == nil || strings.TrimSpace(d.Contact.Phone) == "" {
		return Tournament{}, missing("contact.phone")
	}
	if strings.TrimSpace(d.Contact.WhatsappPhone) == "" {
		return Tournament{}, missing("contact.whatsapp_phone")
	}
	if d.MaxParticipants < 0 {
		return Tournament{}, apperr.Validation("max_participants", "must not be negative")
	}

	now = now.UTC()
	return Tournament{
		Slug:             slug,
		Title:            title,
		Subtitle:         d.Subtitle,
		Status:           status,
		RegistrationOpen: *d.RegistrationOpen,
		Dates: TournamentDates{
			Start:     d.Dates.Start,
			End:       d.Dates.End,
			StartTime: d.Dates.StartTime,
		},
		Location: TournamentLocation(*d.Location),
		Fees:     TournamentFees{EntryFee: *d.Fees.EntryFee, Currency: currency},
		Prize: TournamentPrize{
			Fund:       *d.Prize.Fund,
			Currency:   d.Prize.Currency,
			PrizesText: d.Prize.PrizesText,
			Items:      items,
		},
		Brackets:        d.Brackets,
		PosterImageURL:  d.PosterImageURL,
		Description:     *d.Description,
		FormatText:      *d.FormatText,
		RequiredFields:  d.RequiredFields,
		MaxParticipants: d.MaxParticipants,
		Contact:         TournamentContact(*d.Contact),
		IsFeatured:      d.IsFeatured,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func missing(field string) error {
	return apperr.Validation(field, "field required")
}

func checkDate(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return missing(field)
	}
	if _, err := time.Parse(util.DateLayout, v); err != nil {
		return apperr.Validation(field, "expected YYYY-MM-DD")
	}
	return nil
}
