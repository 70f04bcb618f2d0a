package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ---------- Tournaments ----------

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusFinished  = "finished"
)

var TournamentStatuses = []string{StatusDraft, StatusPublished, StatusFinished}

type TournamentDates struct {
	Start     string `json:"start" bson:"start"` // YYYY-MM-DD
	End       string `json:"end" bson:"end"`
	StartTime string `json:"start_time,omitempty" bson:"start_time,omitempty"` // HH:MM
}

type TournamentLocation struct {
	City      string `json:"city" bson:"city"`
	Country   string `json:"country" bson:"country"`
	VenueName string `json:"venue_name" bson:"venue_name"`
	Address   string `json:"address" bson:"address"`
}

type TournamentFees struct {
	EntryFee int    `json:"entry_fee" bson:"entry_fee"`
	Currency string `json:"currency" bson:"currency"`
}

type PrizeItem struct {
	From   int    `json:"from" bson:"from"`
	To     int    `json:"to" bson:"to"`
	Label  string `json:"label" bson:"label"`
	Amount int    `json:"amount" bson:"amount"`
}

type TournamentPrize struct {
	Fund       int         `json:"fund" bson:"fund"`
	Currency   string      `json:"currency" bson:"currency"`
	PrizesText string      `json:"prizes_text,omitempty" bson:"prizes_text,omitempty"`
	Items      []PrizeItem `json:"items" bson:"items"`
}

type Bracket struct {
	Label string `json:"label,omitempty" bson:"label,omitempty"`
	Size  int    `json:"size,omitempty" bson:"size,omitempty"`
}

type TournamentContact struct {
	Phone         string `json:"phone" bson:"phone"`
	WhatsappPhone string `json:"whatsapp_phone" bson:"whatsapp_phone"`
}

type Tournament struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Slug             string             `json:"slug" bson:"slug"`
	Title            string             `json:"title" bson:"title"`
	Subtitle         string             `json:"subtitle,omitempty" bson:"subtitle,omitempty"`
	Status           string             `json:"status" bson:"status"`
	RegistrationOpen bool               `json:"registration_open" bson:"registration_open"`
	Dates            TournamentDates    `json:"dates" bson:"dates"`
	Location         TournamentLocation `json:"location" bson:"location"`
	Fees             TournamentFees     `json:"fees" bson:"fees"`
	Prize            TournamentPrize    `json:"prize" bson:"prize"`
	Brackets         []Bracket          `json:"brackets,omitempty" bson:"brackets,omitempty"`
	PosterImageURL   string             `json:"poster_image_url,omitempty" bson:"poster_image_url,omitempty"`
	Description      string             `json:"description" bson:"description"`
	FormatText       string             `json:"format_text" bson:"format_text"`
	RequiredFields   []string           `json:"required_fields" bson:"required_fields"`
	MaxParticipants  int                `json:"max_participants" bson:"max_participants"`
	Contact          TournamentContact  `json:"contact" bson:"contact"`
	IsFeatured       bool               `json:"is_featured" bson:"is_featured"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// TournamentCreated is what the admin create endpoint returns.
type TournamentCreated struct {
	ID    string `json:"_id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// SortTournaments puts featured tournaments first, then orders by start date.
func SortTournaments(ts []Tournament) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].IsFeatured != ts[j].IsFeatured {
			return ts[i].IsFeatured
		}
		return ts[i].Dates.Start < ts[j].Dates.Start
	})
}

func IsTournamentStatus(s string) bool {
	for _, v := range TournamentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ---------- Registrations ----------

const (
	RegistrationNew       = "new"
	RegistrationConfirmed = "confirmed"
	RegistrationCancelled = "cancelled"
)

const (
	CategoryProfessional = "Профессионал"
	CategoryAmateur      = "Любитель"
)

var Categories = []string{CategoryProfessional, CategoryAmateur}

var Ranks = []string{"КМС", "МС", "МСМК", "ЗМС", "Не выбрано"}

// RegistrationRequest is the raw body of POST /api/registrations.
type RegistrationRequest struct {
	TournamentID string `json:"tournament_id"`
	Fio          string `json:"fio"`
	BirthDate    string `json:"birth_date"`
	Phone        string `json:"phone"`
	Category     string `json:"category"`
	Rank         string `json:"rank"`
	CityCountry  string `json:"city_country"`
	Comment      string `json:"comment,omitempty"`
	Consent      bool   `json:"consent"`
	Honeypot     string `json:"honeypot,omitempty"`
}

// RegistrationCreate is a request that passed validation.
type RegistrationCreate struct {
	TournamentID string
	Fio          string
	BirthDate    time.Time
	Phone        string // +7XXXXXXXXXX
	Category     string
	Rank         string
	CityCountry  string
	Comment      string
}

type RegistrationMeta struct {
	IP        string `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
}

type Registration struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TournamentID string             `json:"tournament_id" bson:"tournament_id"`
	Fio          string             `json:"fio" bson:"fio"`
	BirthDate    string             `json:"birth_date" bson:"birth_date"`
	Phone        string             `json:"phone" bson:"phone"`
	Category     string             `json:"category" bson:"category"`
	Rank         string             `json:"rank" bson:"rank"`
	CityCountry  string             `json:"city_country" bson:"city_country"`
	Comment      string             `json:"comment,omitempty" bson:"comment,omitempty"`
	Status       string             `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	Meta         RegistrationMeta   `json:"meta" bson:"meta"`
}

type RegistrationResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	WhatsappLink   string `json:"whatsapp_link"`
	RegistrationID string `json:"registration_id,omitempty"`
}

// Participant is the public view of a registration, without contact data.
type Participant struct {
	Fio         string `json:"fio" bson:"fio"`
	Rank        string `json:"rank" bson:"rank"`
	Category    string `json:"category" bson:"category"`
	CityCountry string `json:"city_country" bson:"city_country"`
}
