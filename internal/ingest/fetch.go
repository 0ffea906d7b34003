package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xuri/excelize/v2"

	"github.com/lox/gridcast/internal/htmlutil"
	"github.com/lox/gridcast/internal/httputil"
	"github.com/lox/gridcast/internal/metrics"
	"github.com/lox/gridcast/internal/models"
	"github.com/lox/gridcast/internal/store"
)

const (
	DefaultExportURL = "https://meritindia.in/StateWiseDetails/ExportToExcel"
	// RecordDateLayout is the export's date format, also written into the
	// Date column of the combined table.
	RecordDateLayout = "02 Jan 2006"
	meritSource      = "merit"
)

// MeritClient downloads the national per-station daily export.
type MeritClient struct {
	client  *http.Client
	baseURL string
	retries uint64
}

// NewMeritClient returns a client that makes retries extra attempts on
// throttling and server errors. Zero means a single attempt.
func NewMeritClient(retries int) *MeritClient {
	if retries < 0 {
		retries = 0
	}
	return &MeritClient{
		client:  httputil.NewClient(),
		baseURL: DefaultExportURL,
		retries: uint64(retries),
	}
}

func (c *MeritClient) WithBaseURL(u string) *MeritClient {
	c.baseURL = u
	return c
}

func (c *MeritClient) ExportURL(day time.Time) string {
	q := url.Values{}
	q.Set("StateCode", "0")
	q.Set("RecordDate", day.Format(RecordDateLayout))
	q.Set("DiscomCode", "0")
	return c.baseURL + "?" + q.Encode()
}

// Export is one downloaded workbook.
type Export struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Export downloads the workbook for day.
func (c *MeritClient) Export(ctx context.Context, day time.Time) (*Export, error) {
	exportURL := c.ExportURL(day)
	result := &Export{URL: exportURL}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		metrics.FetchLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.FetchRequestsTotal.WithLabelValues("error").Inc()
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("fetch export: %w", err)
		}
		defer resp.Body.Close()

		result.StatusCode = resp.StatusCode
		metrics.FetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			return fmt.Errorf("fetch export: status %d: %s", resp.StatusCode, htmlutil.Snippet(string(b), 200))
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			return backoff.Permanent(fmt.Errorf("fetch export: status %d: %s", resp.StatusCode, htmlutil.Snippet(string(b), 200)))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			return backoff.Permanent(fmt.Errorf("fetch export: got html instead of a workbook: %s", htmlutil.Snippet(string(body), 200)))
		}
		result.Body = body
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	notify := func(err error, wait time.Duration) {
		log.Printf("fetch: %s failed, retrying in %s: %v", day.Format(RecordDateLayout), wait.Round(time.Millisecond), err)
	}
	if err := backoff.RetryNotify(operation, bo, notify); err != nil {
		return result, err
	}
	return result, nil
}

// Fetcher downloads a date range of daily exports and writes them as one
// table with a leading Date column.
type Fetcher struct {
	client *MeritClient
	store  *store.Store
}

// NewFetcher returns a fetcher. A nil store disables run auditing.
func NewFetcher(client *MeritClient, st *store.Store) *Fetcher {
	return &Fetcher{client: client, store: st}
}

// Run fetches every day from start to end inclusive and writes the
// combined table to out once all days succeed. Any failure aborts the
// batch and leaves out untouched.
func (f *Fetcher) Run(ctx context.Context, start, end time.Time, out string) error {
	start, end = models.Day(start), models.Day(end)
	if end.Before(start) {
		return fmt.Errorf("end %s is before start %s", end.Format(RecordDateLayout), start.Format(RecordDateLayout))
	}

	table := newCombinedTable()
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := f.fetchDay(ctx, day, table)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", day.Format(RecordDateLayout), err)
		}
		log.Printf("fetch: data for %s updated (%d rows)", day.Format(RecordDateLayout), n)
	}

	if err := table.write(out); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Printf("fetch: wrote %d rows to %s", len(table.rows), out)
	return nil
}

func (f *Fetcher) fetchDay(ctx context.Context, day time.Time, table *combinedTable) (int, error) {
	recordDate := day.Format(RecordDateLayout)

	var run *models.IngestRun
	if f.store != nil {
		var err error
		run, err = f.store.StartIngestRun(meritSource, recordDate)
		if err != nil {
			log.Printf("fetch: failed to start ingest run: %v", err)
		}
	}

	n, export, err := f.appendDay(ctx, day, table)
	f.completeRun(run, export, n, err)
	return n, err
}

func (f *Fetcher) appendDay(ctx context.Context, day time.Time, table *combinedTable) (int, *Export, error) {
	export, err := f.client.Export(ctx, day)
	if err != nil {
		return 0, export, err
	}
	rows, err := ReadTable(bytes.NewReader(export.Body), FormatXLSX, "")
	if err != nil {
		return 0, export, err
	}
	return table.append(day.Format(RecordDateLayout), rows), export, nil
}

func (f *Fetcher) completeRun(run *models.IngestRun, export *Export, rows int, fetchErr error) {
	if run == nil {
		return
	}
	if export != nil {
		if export.StatusCode != 0 {
			run.HTTPStatus.Int64, run.HTTPStatus.Valid = int64(export.StatusCode), true
		}
		if export.Body != nil {
			run.ResponseSizeBytes.Int64, run.ResponseSizeBytes.Valid = int64(len(export.Body)), true
			if _, err := f.store.StoreRawPayload(run.ID, meritSource, run.RecordDate, export.Body); err != nil {
				log.Printf("fetch: failed to store raw payload: %v", err)
			}
		}
	}
	if fetchErr != nil {
		run.ErrorMessage.String, run.ErrorMessage.Valid = fetchErr.Error(), true
	} else {
		run.Success = true
		run.RowsParsed.Int64, run.RowsParsed.Valid = int64(rows), true
	}
	if err := f.store.CompleteIngestRun(run); err != nil {
		log.Printf("fetch: failed to complete ingest run: %v", err)
	}
}

// combinedTable concatenates daily sheets. Columns are matched by header
// name, and a column first seen on a later day is appended to the header
// with earlier rows left blank.
type combinedTable struct {
	header []string
	index  map[string]int
	rows   [][]string
}

func newCombinedTable() *combinedTable {
	t := &combinedTable{index: make(map[string]int)}
	t.column("Date")
	return t
}

func (t *combinedTable) column(name string) int {
	key := strings.ToLower(strings.TrimSpace(name))
	if i, ok := t.index[key]; ok {
		return i
	}
	t.header = append(t.header, strings.TrimSpace(name))
	t.index[key] = len(t.header) - 1
	return len(t.header) - 1
}

// append adds the data rows of one day's sheet and returns how many.
func (t *combinedTable) append(recordDate string, rows [][]string) int {
	if len(rows) == 0 {
		return 0
	}
	cols := make([]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[i] = t.column(h)
	}

	n := 0
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		out := make([]string, len(t.header))
		out[0] = recordDate
		for i, v := range row {
			if i < len(cols) {
				out[cols[i]] = v
			}
		}
		t.rows = append(t.rows, out)
		n++
	}
	return n
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (t *combinedTable) write(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	switch FormatFromName(path) {
	case FormatCSV:
		return t.writeCSV(path)
	default:
		return t.writeXLSX(path)
	}
}

func (t *combinedTable) writeCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(file)
	if err := w.Write(t.header); err != nil {
		file.Close()
		return err
	}
	for _, row := range t.rows {
		if err := w.Write(pad(row, len(t.header))); err != nil {
			file.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (t *combinedTable) writeXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range t.rows {
		cells := make([]interface{}, len(t.header))
		for i, v := range pad(row, len(t.header)) {
			cells[i] = cellValue(i, v)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// cellValue keeps Date as text and stores numeric strings as numbers.
func cellValue(col int, v string) interface{} {
	if col == 0 {
		return v
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return n
	}
	return v
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// ParseRecordDate parses a "DD Mon YYYY" or ISO command-line date.
func ParseRecordDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{RecordDateLayout, "2 Jan 2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("date must be DD Mon YYYY or YYYY-MM-DD: " + strconv.Quote(s))
}
