package export

import (
	"context"
	"fmt"
	"time"

	"github.com/honeycarbs/mixer-client/internal/config"
	"github.com/honeycarbs/mixer-client/internal/domain"
	"github.com/honeycarbs/mixer-client/pkg/logging"
	sheetsclient "github.com/honeycarbs/mixer-client/pkg/sheets"
)

// Writer is the subset of the Sheets client the exporter needs
type Writer interface {
	ReplaceTab(ctx context.Context, spreadsheetID, tab string, rows [][]interface{}) (int, error)
}

// Params selects the export destination; empty fields fall back to config
type Params struct {
	SpreadsheetID string `json:"spreadsheet_id,omitempty" jsonschema:"Google Sheets document ID"`
	Tab           string `json:"tab,omitempty" jsonschema:"Tab name to overwrite"`
}

// Result summarizes an export
type Result struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	Tab           string `json:"tab"`
	WrittenRows   int    `json:"written_rows"`
	CompletedAt   string `json:"completed_at"` // RFC 3339
}

var header = []interface{}{"Job ID", "File", "Uploaded As", "Status", "Exported At"}

// SheetsExporter overwrites a Sheets tab with the current job list
type SheetsExporter struct {
	writer   Writer
	defaults Params
	clock    func() time.Time
}

// NewSheetsExporter builds an exporter from config. Without credentials the
// exporter is still returned and every Export call fails with a hint.
func NewSheetsExporter(ctx context.Context, cfg config.Config, logger *logging.Logger) *SheetsExporter {
	e := &SheetsExporter{
		defaults: Params{SpreadsheetID: cfg.Sheets.SpreadsheetID, Tab: cfg.Sheets.Tab},
		clock:    time.Now,
	}

	if !cfg.SheetsConfigured() {
		return e
	}

	client, err := sheetsclient.NewClient(ctx, sheetsclient.Config{
		CredentialsPath: cfg.Sheets.CredentialsPath,
		CredentialsJSON: []byte(cfg.Sheets.CredentialsJSON),
	})
	if err != nil {
		logger.Warn("Google Sheets export disabled", "err", err)
		return e
	}
	e.writer = client
	return e
}

// NewSheetsExporterWithWriter is used when the caller owns the writer
func NewSheetsExporterWithWriter(w Writer, defaults Params, clock func() time.Time) *SheetsExporter {
	if clock == nil {
		clock = time.Now
	}
	return &SheetsExporter{writer: w, defaults: defaults, clock: clock}
}

// Export writes a header row plus one row per job in server order
func (e *SheetsExporter) Export(ctx context.Context, params Params, jobs []domain.Job) (Result, error) {
	if params.SpreadsheetID == "" {
		params.SpreadsheetID = e.defaults.SpreadsheetID
	}
	if params.Tab == "" {
		params.Tab = e.defaults.Tab
	}

	result := Result{SpreadsheetID: params.SpreadsheetID, Tab: params.Tab}

	if e.writer == nil {
		return result, fmt.Errorf("sheets: client not configured (set GOOGLE_SHEETS_CREDENTIALS_PATH or GOOGLE_SHEETS_CREDENTIALS_JSON)")
	}
	if params.SpreadsheetID == "" {
		return result, fmt.Errorf("sheets: spreadsheet ID is required (set GOOGLE_SHEETS_ID or pass one)")
	}

	now := e.clock().UTC()
	written, err := e.writer.ReplaceTab(ctx, params.SpreadsheetID, params.Tab, jobRows(jobs, now))
	if err != nil {
		return result, err
	}

	result.WrittenRows = written
	result.CompletedAt = now.Format(time.RFC3339)
	return result, nil
}

func jobRows(jobs []domain.Job, at time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, len(jobs)+1)
	rows = append(rows, header)
	stamp := at.Format(time.RFC3339)
	for _, j := range jobs {
		rows = append(rows, []interface{}{j.ID, j.DisplayName(), j.Filename, j.DisplayStatus(), stamp})
	}
	return rows
}
