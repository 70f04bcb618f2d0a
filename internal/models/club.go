package models

type ClubSettings struct {
	ClubName      string   `json:"club_name"`
	City          string   `json:"city"`
	Address       string   `json:"address"`
	WorkHours     string   `json:"work_hours"`
	Phones        []string `json:"phones"`
	WhatsappPhone string   `json:"whatsapp_phone"`
	InstagramURL  string   `json:"instagram_url"`
	TwoGisURL     string   `json:"two_gis_url"`
	HeroTitle     string   `json:"hero_title"`
	HeroSubtitle  string   `json:"hero_subtitle"`
	AboutText     string   `json:"about_text"`
	Advantages    []string `json:"advantages"`
}

// DefaultClubSettings is served as is by GET /api/club-settings.
func DefaultClubSettings() ClubSettings {
	return ClubSettings{
		ClubName:      "Start Loft",
		City:          "Кызылорда",
		Address:       "ул. Абая, 123",
		WorkHours:     "10:00-02:00",
		Phones:        []string{"+7 771 821 50 88"},
		WhatsappPhone: "+7 771 821 50 88",
		InstagramURL:  "https://instagram.com/startloft.kz",
		TwoGisURL:     "https://2gis.kz/kyzylorda/geo/70000001100786145",
		HeroTitle:     "Start Loft — бильярдный клуб в Кызылорде",
		HeroSubtitle:  "Турниры, атмосфера лофта и честная игра. Запись на турнир — за 1 минуту.",
		AboutText:     "Start Loft — место, где собираются те, кто любит бильярд.",
		Advantages:    []string{"Профессиональные столы", "Уютная атмосфера", "Регулярные турниры", "Доступные цены"},
	}
}
