// Package sheets exports transaction history to a Google spreadsheet
// so it can be shared outside the app. Export is one-way: rows are
// appended, never read back.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cashbook/internal/config"
	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

var header = []any{"Date", "Time", "Category", "Counterparty", "Reason", "Amount", "Direction"}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	zone          *time.Location
}

// NewFromConfig creates an exporter using service account credentials
// from the application config, inline JSON taking precedence over a
// credentials file.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.GoogleSpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.GoogleSheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.GoogleCredentialsJSON) != "":
		credentialsJSON = []byte(cfg.GoogleCredentialsJSON)
	case strings.TrimSpace(cfg.GoogleCredentialsFile) != "":
		raw, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = raw
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	zone, err := timeutil.LoadZone(cfg.DisplayTimezone)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Google Sheets exporter initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", sheetName)

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
		zone:          zone,
	}, nil
}

// Export appends the transactions to the sheet, newest last, preceded
// by a header row when the sheet is empty. It returns the number of
// data rows written.
func (e *Exporter) Export(ctx context.Context, txs []core.Transaction) (int, error) {
	if e.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if len(txs) == 0 {
		return 0, nil
	}

	rng := fmt.Sprintf("%s!A:A", e.sheetName)
	existing, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get sheet dimensions for %s: %w", e.sheetName, err)
	}

	values := make([][]any, 0, len(txs)+1)
	if len(existing.Values) == 0 {
		values = append(values, header)
	}
	values = append(values, Rows(txs, e.zone)...)

	vr := &gsheet.ValueRange{Values: values}
	_, err = e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	slog.InfoContext(ctx, "Transactions exported",
		"sheet", e.sheetName,
		"rows", len(txs))
	return len(txs), nil
}

// Rows converts transactions to spreadsheet rows. Oldest first so the
// sheet reads chronologically.
func Rows(txs []core.Transaction, zone *time.Location) [][]any {
	rows := make([][]any, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		var date, tod string
		if ms, ok := t.Timestamp(); ok {
			date = timeutil.FormatDate(ms, zone)
			tod = timeutil.FormatTime(ms, zone)
		}
		direction := "OUT"
		if t.AmountIn {
			direction = "IN"
		}
		rows = append(rows, []any{
			date,
			tod,
			t.Category,
			t.Counterparty(),
			t.Reason,
			t.Amount.Units(),
			direction,
		})
	}
	return rows
}
