package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/sadopc/worktimer/internal/logging"
)

// Sheets keeps month tables as tabs of one Google spreadsheet. Each tab is
// named after its key and starts with the header row.
type Sheets struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewSheets authenticates with a service account credentials file.
func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string, logger *slog.Logger) (*Sheets, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if credentialsFile == "" {
		return nil, errors.New("missing service account credentials file")
	}
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

func (s *Sheets) Close() error { return nil }

func (s *Sheets) Commit(ctx context.Context, key Key, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	titles, err := s.tabTitles(ctx)
	if err != nil {
		return err
	}
	title := key.String()
	values := [][]any{toValues(rec.row())}
	if !contains(titles, title) {
		if err := s.addTab(ctx, title); err != nil {
			return err
		}
		values = append([][]any{toValues(header)}, values...)
	}

	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, tabRange(title), &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to tab %s: %w", title, err)
	}
	s.logger.InfoContext(ctx, "session committed", "table", title, "duration", rec.Duration)
	return nil
}

func (s *Sheets) Load(ctx context.Context, key Key) ([]Record, error) {
	titles, err := s.tabTitles(ctx)
	if err != nil {
		return nil, err
	}
	title := key.String()
	if !contains(titles, title) {
		return []Record{}, nil
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, tabRange(title)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read tab %s: %w", title, err)
	}
	records, err := recordsFromRows(stringRows(resp.Values))
	if err != nil {
		return nil, fmt.Errorf("read tab %s: %w", title, err)
	}
	return records, nil
}

func (s *Sheets) Months(ctx context.Context) ([]Key, error) {
	titles, err := s.tabTitles(ctx)
	if err != nil {
		return nil, err
	}
	return keysFromNames(titles), nil
}

func (s *Sheets) tabTitles(ctx context.Context) ([]string, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	var titles []string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *Sheets) addTab(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", title, err)
	}
	return nil
}

// tabRange quotes the title: tab names such as "6" would otherwise be read
// as cell references.
func tabRange(title string) string {
	return fmt.Sprintf("'%s'!A:C", strings.ReplaceAll(title, "'", "''"))
}

func toValues(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func stringRows(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return rows
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
