package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"patterncal/internal/extract"
)

// SheetsClient reads and writes Google Sheets values.
type SheetsClient struct {
	service *sheets.Service
	logger  *slog.Logger
}

// NewSheetsClient creates a Sheets client.
func NewSheetsClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*SheetsClient, error) {
	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{service: service, logger: logger}, nil
}

// ReadTable reads a range whose first row is the header. Shorter rows are
// padded and longer rows truncated to the header width.
func (c *SheetsClient) ReadTable(ctx context.Context, spreadsheetID, readRange string) (header []string, rows [][]string, err error) {
	if readRange == "" {
		readRange = "A:Z"
	}
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	header, rows = squareValues(resp.Values)
	c.logger.Debug("Read sheet.", "spreadsheetID", spreadsheetID, "rows", len(rows))
	return header, rows, nil
}

func squareValues(values [][]interface{}) ([]string, [][]string) {
	if len(values) == 0 {
		return nil, nil
	}
	header := toStrings(values[0])
	rows := make([][]string, 0, len(values)-1)
	for _, v := range values[1:] {
		row := toStrings(v)
		switch {
		case len(row) < len(header):
			row = append(row, make([]string, len(header)-len(row))...)
		case len(row) > len(header):
			row = row[:len(header)]
		}
		rows = append(rows, row)
	}
	return header, rows
}

func toStrings(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// WriteTable overwrites the sheet starting at A1 of sheetName with the
// table, header first. Missing cells are left blank.
func (c *SheetsClient) WriteTable(ctx context.Context, spreadsheetID, sheetName string, t *extract.Table) error {
	values := tableValues(t)
	rng := "A1"
	if sheetName != "" {
		rng = sheetName + "!A1"
	}
	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet: %w", err)
	}
	c.logger.Info("Wrote results to sheet.", "spreadsheetID", spreadsheetID, "rows", len(t.Rows))
	return nil
}

func tableValues(t *extract.Table) [][]interface{} {
	if t.Empty() {
		return nil
	}
	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Columns))
	for i, name := range t.Names() {
		header[i] = name
	}
	values = append(values, header)
	for _, row := range t.Rows {
		line := make([]interface{}, len(row))
		for i, cell := range row {
			switch {
			case cell.Missing:
				line[i] = ""
			case cell.Kind == extract.CellNumber:
				line[i] = cell.Number
			default:
				line[i] = cell.String()
			}
		}
		values = append(values, line)
	}
	return values
}
