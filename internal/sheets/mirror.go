package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"startloft-api/internal/models"
)

var ErrNotConfigured = errors.New("sheets: spreadsheet id or credentials file not configured")

type MirrorConfig struct {
	Enabled         bool
	CredentialsFile string
	SpreadsheetID   string
	Worksheet       string
}

// Mirror copies registrations to the staff spreadsheet. It owns a single
// Client that is created on first use and then reused.
type Mirror struct {
	cfg MirrorConfig

	mu      sync.Mutex
	client  *Client
	connect func(ctx context.Context) (*Client, error)
}

func NewMirror(cfg MirrorConfig) *Mirror {
	m := &Mirror{cfg: cfg}
	m.connect = func(ctx context.Context) (*Client, error) {
		return New(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.Worksheet)
	}
	return m
}

func (m *Mirror) Enabled() bool { return m != nil && m.cfg.Enabled }

func (m *Mirror) getClient(ctx context.Context) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	if m.cfg.SpreadsheetID == "" || m.cfg.CredentialsFile == "" {
		return nil, ErrNotConfigured
	}
	c, err := m.connect(ctx)
	if err != nil {
		// not cached, the next call tries again
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	log.Printf("sheets: client initialized for spreadsheet %s", m.cfg.SpreadsheetID)
	m.client = c
	return c, nil
}

// AppendRegistration reports (false, nil) when the integration is switched
// off and (false, err) when the write did not happen.
func (m *Mirror) AppendRegistration(ctx context.Context, r models.Registration, tournamentName string) (bool, error) {
	if !m.Enabled() {
		return false, nil
	}
	c, err := m.getClient(ctx)
	if err != nil {
		return false, err
	}
	if err := c.AppendRegistration(ctx, r, tournamentName); err != nil {
		return false, fmt.Errorf("registration %s: %w", r.ID.Hex(), err)
	}
	log.Printf("sheets: added registration %s (%s) for %q", r.ID.Hex(), r.Fio, tournamentName)
	return true, nil
}

// Ping returns the spreadsheet title.
func (m *Mirror) Ping(ctx context.Context) (string, error) {
	if !m.Enabled() {
		return "", errors.New("sheets: integration disabled")
	}
	c, err := m.getClient(ctx)
	if err != nil {
		return "", err
	}
	return c.Title(ctx)
}
