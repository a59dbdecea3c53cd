package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client struct {
	service *sheets.Service
}

type Config struct {
	CredentialsPath string
	CredentialsJSON []byte
	// Options are appended after the credential option, e.g. an endpoint
	// override in tests
	Options []option.ClientOption
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption

	switch {
	case cfg.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case len(cfg.Options) == 0:
		return nil, fmt.Errorf("sheets: credentials path or JSON is required")
	}
	opts = append(opts, cfg.Options...)

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return &Client{service: service}, nil
}

// ReplaceTab clears every value in tab and writes rows starting at A1.
// It returns the number of rows the API reports as updated.
func (c *Client) ReplaceTab(ctx context.Context, spreadsheetID, tab string, rows [][]interface{}) (int, error) {
	if c == nil || c.service == nil {
		return 0, fmt.Errorf("sheets: service is nil")
	}
	if spreadsheetID == "" {
		return 0, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	if tab == "" {
		tab = "Sheet1"
	}

	_, err := c.service.Spreadsheets.Values.
		Clear(spreadsheetID, tab, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: clear %s: %w", tab, err)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	resp, err := c.service.Spreadsheets.Values.
		Update(spreadsheetID, fmt.Sprintf("%s!A1", tab), &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: write %s: %w", tab, err)
	}

	return int(resp.UpdatedRows), nil
}
