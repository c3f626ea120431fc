package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yukikurage/printshop-manager/internal/models"
	"google.golang.org/api/sheets/v4"
)

// Layouts accepted for timestamp cells typed by hand into the spreadsheet.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// SheetsTable is a Google Sheets implementation of Table. Rows are mapped to
// records through the header row, the way the Apps Script endpoint does it.
type SheetsTable[T any] struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         models.Sheet

	// stringCols are the columns decoded into string fields.
	stringCols map[string]bool

	mu      sync.Mutex
	sheetID int64
	ready   bool
}

// NewSheetsTable creates a Table for one sheet of the spreadsheet
func NewSheetsTable[T any](svc *sheets.Service, spreadsheetID string, sheet models.Sheet) *SheetsTable[T] {
	return &SheetsTable[T]{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		stringCols:    stringFields(reflect.TypeOf((*T)(nil)).Elem()),
	}
}

// NewSheetsStore creates a Store backed by a Google spreadsheet
func NewSheetsStore(svc *sheets.Service, spreadsheetID string) *Store {
	return &Store{
		Users:  NewSheetsTable[models.User](svc, spreadsheetID, models.UserSheet),
		Orders: NewSheetsTable[models.Order](svc, spreadsheetID, models.OrderSheet),
		Tasks:  NewSheetsTable[models.Task](svc, spreadsheetID, models.TaskSheet),
	}
}

// List converts every data row into a record
func (t *SheetsTable[T]) List(ctx context.Context) ([]T, error) {
	values, err := t.values(ctx)
	if err != nil {
		return nil, err
	}

	rows := []T{}
	if len(values) < 2 {
		return rows, nil
	}

	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = fmt.Sprint(h)
	}

	for n, cells := range values[1:] {
		fields := make(map[string]interface{}, len(headers))
		for i, header := range headers {
			if i >= len(cells) {
				break
			}
			cell := cells[i]
			if s, ok := cell.(string); ok && s == "" {
				continue
			}
			if t.sheet.IsTimestamp(header) {
				cell = normalizeTimestamp(cell)
			} else if t.stringCols[header] {
				cell = cellString(cell)
			}
			fields[header] = cell
		}

		var row T
		if err := decodeFields(fields, &row); err != nil {
			return nil, fmt.Errorf("sheet %s row %d: %w", t.sheet.Name, n+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append writes a row after the last data row
func (t *SheetsTable[T]) Append(ctx context.Context, row *T) error {
	if _, err := t.ensureSheet(ctx); err != nil {
		return err
	}
	cells, err := t.cells(row)
	if err != nil {
		return err
	}

	_, err = t.svc.Spreadsheets.Values.Append(t.spreadsheetID, t.sheet.Name, &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", t.sheet.Name, err)
	}
	return nil
}

// Replace overwrites the row matching id
func (t *SheetsTable[T]) Replace(ctx context.Context, id string, row *T) error {
	index, err := t.findRow(ctx, id)
	if err != nil {
		return err
	}
	cells, err := t.cells(row)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A%d", t.sheet.Name, index+1)
	_, err = t.svc.Spreadsheets.Values.Update(t.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// Delete removes the row matching id and shifts the rows below it up
func (t *SheetsTable[T]) Delete(ctx context.Context, id string) error {
	index, err := t.findRow(ctx, id)
	if err != nil {
		return err
	}
	sheetID, err := t.ensureSheet(ctx)
	if err != nil {
		return err
	}

	_, err = t.svc.Spreadsheets.BatchUpdate(t.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(index),
					EndIndex:   int64(index + 1),
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row %d of %s: %w", index+1, t.sheet.Name, err)
	}
	return nil
}

func (t *SheetsTable[T]) values(ctx context.Context) ([][]interface{}, error) {
	if _, err := t.ensureSheet(ctx); err != nil {
		return nil, err
	}
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, t.sheet.Name).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.sheet.Name, err)
	}
	return resp.Values, nil
}

// findRow returns the zero-based index of the row whose id column matches.
// Index 0 is the header row and never matches.
func (t *SheetsTable[T]) findRow(ctx context.Context, id string) (int, error) {
	values, err := t.values(ctx)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}

	idCol := -1
	for i, h := range values[0] {
		if fmt.Sprint(h) == "id" {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return 0, fmt.Errorf("sheet %s has no id column", t.sheet.Name)
	}

	for i := 1; i < len(values); i++ {
		if idCol < len(values[i]) && fmt.Sprint(values[i][idCol]) == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrRowNotFound, id)
}

// ensureSheet looks up the sheet id, creating the sheet with its header row when missing.
func (t *SheetsTable[T]) ensureSheet(ctx context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ready {
		return t.sheetID, nil
	}

	spreadsheet, err := t.svc.Spreadsheets.Get(t.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("open spreadsheet: %w", err)
	}
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == t.sheet.Name {
			t.sheetID = s.Properties.SheetId
			t.ready = true
			return t.sheetID, nil
		}
	}

	resp, err := t.svc.Spreadsheets.BatchUpdate(t.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:          t.sheet.Name,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("create sheet %s: %w", t.sheet.Name, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("create sheet %s: empty reply", t.sheet.Name)
	}

	header := make([]interface{}, len(t.sheet.Columns))
	for i, c := range t.sheet.Columns {
		header[i] = c
	}
	_, err = t.svc.Spreadsheets.Values.Update(t.spreadsheetID, t.sheet.Name+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write header of %s: %w", t.sheet.Name, err)
	}

	t.sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	t.ready = true
	return t.sheetID, nil
}

// cells lays a record out in the sheet's column order. Missing fields become empty cells.
func (t *SheetsTable[T]) cells(row *T) ([]interface{}, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}

	cells := make([]interface{}, len(t.sheet.Columns))
	for i, c := range t.sheet.Columns {
		v, ok := fields[c]
		if !ok || v == nil {
			cells[i] = ""
			continue
		}
		cells[i] = v
	}
	return cells, nil
}

func decodeFields(fields map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func normalizeTimestamp(cell interface{}) interface{} {
	s, ok := cell.(string)
	if !ok {
		return cell
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC().Format(time.RFC3339Nano)
		}
	}
	return s
}

// stringFields returns the json names of the string-kinded fields of typ.
func stringFields(typ reflect.Type) map[string]bool {
	cols := map[string]bool{}
	if typ.Kind() != reflect.Struct {
		return cols
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Type.Kind() != reflect.String {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		cols[name] = true
	}
	return cols
}

// cellString renders a numeric or boolean cell the way it was typed, so a
// phone number or password entered as a number still decodes into a string.
func cellString(cell interface{}) interface{} {
	switch v := cell.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return cell
	}
}
