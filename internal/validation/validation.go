// Package validation normalizes and checks registration submissions.
package validation

import (
	"regexp"
	"strings"
	"time"

	"startloft-api/internal/apperr"
	"startloft-api/internal/models"
	"startloft-api/internal/util"
)

const (
	MinAge = 5
	MaxAge = 100
)

const (
	MsgSpam        = "Spam detected"
	MsgRequired    = "Поле обязательно для заполнения"
	MsgCategory    = "Недопустимая категория"
	MsgRank        = "Недопустимый разряд"
	MsgBirthFormat = "Дата рождения должна быть в формате ГГГГ-ММ-ДД"
	MsgTooYoung    = "Участник должен быть старше 18 лет"
	MsgTooOld      = "Некорректная дата рождения"
	MsgPhone       = "Телефон должен быть в формате +7XXXXXXXXXX"
	MsgConsent     = "Необходимо согласие на обработку данных"
)

var phonePattern = regexp.MustCompile(`^\+7\d{10}$`)

// Registration returns the normalized submission or the first rule it breaks.
// today is the submission date used for the age check.
func Registration(req models.RegistrationRequest, today time.Time) (models.RegistrationCreate, error) {
	if req.Honeypot != "" {
		return models.RegistrationCreate{}, apperr.Validation("honeypot", MsgSpam)
	}

	out := models.RegistrationCreate{
		TournamentID: strings.TrimSpace(req.TournamentID),
		Fio:          strings.TrimSpace(req.Fio),
		Category:     strings.TrimSpace(req.Category),
		Rank:         strings.TrimSpace(req.Rank),
		CityCountry:  strings.TrimSpace(req.CityCountry),
		Comment:      strings.TrimSpace(req.Comment),
	}

	switch {
	case out.TournamentID == "":
		return models.RegistrationCreate{}, apperr.Validation("tournament_id", MsgRequired)
	case out.Fio == "":
		return models.RegistrationCreate{}, apperr.Validation("fio", MsgRequired)
	case out.CityCountry == "":
		return models.RegistrationCreate{}, apperr.Validation("city_country", MsgRequired)
	}

	if !oneOf(out.Category, models.Categories) {
		return models.RegistrationCreate{}, apperr.Validation("category", MsgCategory)
	}
	if !oneOf(out.Rank, models.Ranks) {
		return models.RegistrationCreate{}, apperr.Validation("rank", MsgRank)
	}

	birth, err := time.Parse(util.DateLayout, strings.TrimSpace(req.BirthDate))
	if err != nil {
		return models.RegistrationCreate{}, apperr.Validation("birth_date", MsgBirthFormat)
	}
	age := Age(birth, today)
	if age < MinAge {
		return models.RegistrationCreate{}, apperr.Validation("birth_date", MsgTooYoung)
	}
	if age > MaxAge {
		return models.RegistrationCreate{}, apperr.Validation("birth_date", MsgTooOld)
	}
	out.BirthDate = birth

	phone, ok := NormalizePhone(req.Phone)
	if !ok {
		return models.RegistrationCreate{}, apperr.Validation("phone", MsgPhone)
	}
	out.Phone = phone

	if !req.Consent {
		return models.RegistrationCreate{}, apperr.Validation("consent", MsgConsent)
	}

	return out, nil
}

// Age counts full years between birth and today by calendar date only.
func Age(birth, today time.Time) int {
	by, bm, bd := birth.Date()
	ty, tm, td := today.Date()
	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}

// NormalizePhone drops everything except digits and '+' and reports whether
// the result looks like +7XXXXXXXXXX.
func NormalizePhone(raw string) (string, bool) {
	b := strings.Builder{}
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if !phonePattern.MatchString(normalized) {
		return normalized, false
	}
	return normalized, true
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
