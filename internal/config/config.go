package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"startloft-api/internal/util"
)

// DefaultOrigins are always allowed by CORS in addition to FRONTEND_URL.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"https://startloft.kz",
	"https://www.startloft.kz",
}

type Config struct {
	MongoURI     string
	DatabaseName string

	AdminToken     string
	AdminSyncToken string

	FrontendURL    string
	AllowedOrigins []string
	TrustedProxies []string

	Host string
	Port int

	RegistrationsPerMinute int

	SheetsEnabled         bool
	SheetsCredentialsFile string
	SheetsSpreadsheetID   string
	SheetsWorksheet       string

	TelegramToken      string
	TelegramAdminChats map[int64]bool
}

func FromEnv() (Config, error) {
	var c Config
	c.MongoURI = strings.TrimSpace(os.Getenv("MONGODB_URI"))
	c.DatabaseName = strings.TrimSpace(os.Getenv("DATABASE_NAME"))
	if c.DatabaseName == "" {
		c.DatabaseName = "startloft"
	}

	c.AdminToken = strings.TrimSpace(os.Getenv("ADMIN_TOKEN"))
	c.AdminSyncToken = strings.TrimSpace(os.Getenv("ADMIN_SYNC_TOKEN"))

	c.FrontendURL = strings.TrimRight(strings.TrimSpace(os.Getenv("FRONTEND_URL")), "/")
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:3000"
	}
	c.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	c.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))

	c.Host = strings.TrimSpace(os.Getenv("HOST"))
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	port, err := intFromEnv("PORT", 8000)
	if err != nil {
		return c, err
	}
	if port <= 0 || port > 65535 {
		return c, fmt.Errorf("PORT out of range: %d", port)
	}
	c.Port = port

	rpm, err := intFromEnv("REGISTRATION_RATE_PER_MINUTE", 5)
	if err != nil {
		return c, err
	}
	if rpm <= 0 {
		return c, fmt.Errorf("REGISTRATION_RATE_PER_MINUTE must be positive")
	}
	c.RegistrationsPerMinute = rpm

	c.SheetsEnabled = util.ParseBool(os.Getenv("GOOGLE_SHEETS_ENABLED"))
	c.SheetsCredentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE"))
	c.SheetsSpreadsheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	c.SheetsWorksheet = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_WORKSHEET"))
	if c.SheetsWorksheet == "" {
		c.SheetsWorksheet = "Регистрации"
	}

	c.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	c.TelegramAdminChats = parseChatIDs(os.Getenv("TELEGRAM_ADMIN_CHAT_IDS"))

	if c.MongoURI == "" {
		return c, fmt.Errorf("MONGODB_URI is empty")
	}
	return c, nil
}

// ValidateServer checks the settings only the HTTP API process needs.
func (c Config) ValidateServer() error {
	if c.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is empty")
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Origins returns every origin CORS should accept, without duplicates.
func (c Config) Origins() []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			return
		}
		seen[o] = true
		out = append(out, o)
	}
	add(c.FrontendURL)
	for _, o := range DefaultOrigins {
		add(o)
	}
	for _, o := range c.AllowedOrigins {
		add(o)
	}
	return out
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseChatIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	for _, p := range splitList(raw) {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
