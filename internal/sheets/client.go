package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
	worksheet     string

	mu    sync.Mutex
	sheet *sheetRef
}

type sheetRef struct {
	title string
	id    int64
}

func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID, worksheet string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	return NewWithOptions(ctx, spreadsheetID, worksheet,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope, sheetsv4.DriveFileScope),
	)
}

// NewWithOptions builds a client from arbitrary API options (custom endpoint,
// HTTP client, credentials).
func NewWithOptions(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is empty")
	}
	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// Title fetches the spreadsheet title; doubles as a connectivity check.
func (c *Client) Title(ctx context.Context) (string, error) {
	resp, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Properties == nil {
		return "", nil
	}
	return resp.Properties.Title, nil
}

// resolveSheet picks the configured worksheet, or the first one when it does
// not exist. The answer is cached for the client's lifetime.
func (c *Client) resolveSheet(ctx context.Context) (sheetRef, error) {
	c.mu.Lock()
	if c.sheet != nil {
		ref := *c.sheet
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	resp, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return sheetRef{}, err
	}
	var ref *sheetRef
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		if ref == nil {
			ref = &sheetRef{title: s.Properties.Title, id: s.Properties.SheetId}
		}
		if s.Properties.Title == c.worksheet {
			ref = &sheetRef{title: s.Properties.Title, id: s.Properties.SheetId}
			break
		}
	}
	if ref == nil {
		return sheetRef{}, fmt.Errorf("spreadsheet %s has no worksheets", c.spreadsheetID)
	}

	c.mu.Lock()
	c.sheet = ref
	c.mu.Unlock()
	return *ref, nil
}

func (c *Client) readRange(ctx context.Context, sheet, rng string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, a1(sheet, rng)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, a1(sheet, "A:I"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (c *Client) updateRow(ctx context.Context, sheet, cell string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, a1(sheet, cell), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (c *Client) insertTopRow(ctx context.Context, sheetID int64) error {
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{{
			InsertDimension: &sheetsv4.InsertDimensionRequest{
				Range: &sheetsv4.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      0,
					EndIndex:        1,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	_, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}

// a1 builds a range like 'Sheet name'!A1 with the title quoted.
func a1(sheet, rng string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + rng
}
