package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/assettracker/internal/config"
)

// valueInputOption keeps cells verbatim so zero-padded tags are not coerced to numbers.
const valueInputOption = "RAW"

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	UpdateRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
	DeleteRow(ctx context.Context, title string, row int) error
	EnsureSheet(ctx context.Context, title string, headers []string) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// UpdateRange overwrites cells starting at the top-left of sheetRange.
func (r *GoogleSheetRepository) UpdateRange(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	if _, err := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("update range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range updated", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// DeleteRow removes the 1-based row from the worksheet in a single batch update,
// shifting the rows below it up.
func (r *GoogleSheetRepository) DeleteRow(ctx context.Context, title string, row int) error {
	if row < 1 {
		return fmt.Errorf("row must be >= 1, got %d", row)
	}

	sheetID, err := r.sheetID(ctx, title)
	if err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
					// The first worksheet has id 0, which omitempty would drop.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", row, title, err)
	}

	r.logger.Debug("row deleted", zap.String("title", title), zap.Int("row", row))
	return nil
}

func (r *GoogleSheetRepository) sheetID(ctx context.Context, title string) (int64, error) {
	spreadsheet, err := r.service.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("load spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("worksheet %s not found", title)
}

// EnsureSheet creates the worksheet when missing and rewrites its header row when it differs.
func (r *GoogleSheetRepository) EnsureSheet(ctx context.Context, title string, headers []string) error {
	spreadsheet, err := r.service.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			exists = true
			break
		}
	}

	if !exists {
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: title},
				},
			}},
		}
		if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add worksheet %s: %w", title, err)
		}
		r.logger.Info("worksheet created", zap.String("title", title))
	}

	current, err := r.ReadRange(ctx, title+"!1:1")
	if err != nil {
		return err
	}
	if len(current) > 0 && sameHeaders(current[0], headers) {
		return nil
	}

	return r.UpdateRange(ctx, title+"!A1", [][]interface{}{toRow(headers)})
}

func sameHeaders(row []interface{}, headers []string) bool {
	if len(row) != len(headers) {
		return false
	}
	for i, h := range headers {
		if fmt.Sprint(row[i]) != h {
			return false
		}
	}
	return true
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func fromRow(row []interface{}) []string {
	values := make([]string, len(row))
	for i, v := range row {
		values[i] = fmt.Sprint(v)
	}
	return values
}
