package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertRows            = "INSERT_ROWS"
)

// Appender appends one row to a spreadsheet range and returns the range
// that was written.
type Appender interface {
	Append(ctx context.Context, spreadsheetID, rng string, row []any) (string, error)
}

// Client wraps the Sheets v4 API with the calls this service needs.
type Client struct {
	svc *gsheets.Service

	// ServiceAccount is the client_email of the credentials, when known.
	// The spreadsheet must be shared with it.
	ServiceAccount string
}

// NewClientFromFile authenticates with a service-account JSON key.
// Extra options are appended after the credentials (tests use them to
// point the client at a fake endpoint).
func NewClientFromFile(ctx context.Context, path string, opts ...option.ClientOption) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	all := append([]option.ClientOption{option.WithHTTPClient(conf.Client(ctx))}, opts...)
	c, err := NewClient(ctx, all...)
	if err != nil {
		return nil, err
	}
	c.ServiceAccount = conf.Email
	return c, nil
}

// NewClient builds a client from raw API options.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Append implements Appender. Values are interpreted as if typed by a user
// and always go into newly inserted rows.
func (c *Client) Append(ctx context.Context, spreadsheetID, rng string, row []any) (string, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Append(spreadsheetID, rng, &gsheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if resp.Updates == nil {
		return rng, nil
	}
	return resp.Updates.UpdatedRange, nil
}

// CreateSpreadsheet creates a spreadsheet with one sheet named sheetName
// and returns its id.
func (c *Client) CreateSpreadsheet(ctx context.Context, title, sheetName string) (string, error) {
	resp, err := c.svc.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
		Sheets: []*gsheets.Sheet{
			{Properties: &gsheets.SheetProperties{Title: sheetName}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet: %w", err)
	}
	return resp.SpreadsheetId, nil
}

// WriteHeader writes Header into the first row of sheetName, then makes it
// bold on a dark background and freezes it.
func (c *Client) WriteHeader(ctx context.Context, spreadsheetID, sheetName string) error {
	values := make([]any, len(Header))
	for i, h := range Header {
		values[i] = h
	}

	rng := fmt.Sprintf("%s!A1:%s1", sheetName, columnName(len(Header)))
	_, err := c.svc.Spreadsheets.Values.
		Update(spreadsheetID, rng, &gsheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	sheetID, err := c.sheetID(ctx, spreadsheetID, sheetName)
	if err != nil {
		return err
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{
			{
				RepeatCell: &gsheets.RepeatCellRequest{
					Range: &gsheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
					Cell: &gsheets.CellData{
						UserEnteredFormat: &gsheets.CellFormat{
							BackgroundColor: &gsheets.Color{Red: 0.0, Green: 0.2, Blue: 0.4},
							TextFormat: &gsheets.TextFormat{
								ForegroundColor: &gsheets.Color{Red: 1, Green: 1, Blue: 1},
								Bold:            true,
							},
						},
					},
					Fields: "userEnteredFormat(backgroundColor,textFormat)",
				},
			},
			{
				UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
					Properties: &gsheets.SheetProperties{
						SheetId:        sheetID,
						GridProperties: &gsheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("format header: %w", err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", sheetName)
}

// columnName converts a 1-based column number to its A1 letters.
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
