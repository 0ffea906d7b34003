package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lox/gridcast/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportServer serves a small workbook per record date. The 30 Jul export
// carries an extra column.
func exportServer(t *testing.T) *httptest.Server {
	t.Helper()
	sheets := map[string][]byte{
		"29 Jul 2022": workbook(t, [][]interface{}{
			{"Station", "Type Of Station", "Declared Capability (MWh)"},
			{"Dadri", "Thermal", 1200},
			{"Kaiga", "Nuclear", 880},
		}),
		"30 Jul 2022": workbook(t, [][]interface{}{
			{"Station", "Type Of Station", "Declared Capability (MWh)", "Remarks"},
			{"Dadri", "Thermal", 1100, "partial outage"},
		}),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("StateCode"))
		assert.Equal(t, "0", r.URL.Query().Get("DiscomCode"))
		body, ok := sheets[r.URL.Query().Get("RecordDate")]
		if !ok {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("<html><body><h1>Not Found</h1></body></html>"))
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	require.NoError(t, st.Migrate())
	return st
}

func TestMeritClient_ExportURL(t *testing.T) {
	c := NewMeritClient(0)
	got := c.ExportURL(day("2022-07-29"))
	assert.Equal(t, DefaultExportURL+"?DiscomCode=0&RecordDate=29+Jul+2022&StateCode=0", got)
}

func TestFetcher_Run_CSV(t *testing.T) {
	srv := exportServer(t)
	st := testStore(t)
	out := filepath.Join(t.TempDir(), "combined.csv")

	f := NewFetcher(NewMeritClient(0).WithBaseURL(srv.URL), st)
	require.NoError(t, f.Run(context.Background(), day("2022-07-29"), day("2022-07-30"), out))

	file, err := os.Open(out)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Station", "Type Of Station", "Declared Capability (MWh)", "Remarks"}, rows[0])
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"29 Jul 2022", "Dadri", "Thermal", "1200", ""}, rows[1])
	assert.Equal(t, []string{"30 Jul 2022", "Dadri", "Thermal", "1100", "partial outage"}, rows[3])

	runs, err := st.GetRecentIngestRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.True(t, run.Success)
		assert.Equal(t, int64(200), run.HTTPStatus.Int64)
	}
	assert.Equal(t, "30 Jul 2022", runs[0].RecordDate)
	assert.Equal(t, int64(1), runs[0].RowsParsed.Int64)

	stats, err := st.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RawPayloadCount)
}

func TestFetcher_Run_XLSXLoadsBack(t *testing.T) {
	srv := exportServer(t)
	out := filepath.Join(t.TempDir(), "nested", "final.xlsx")

	f := NewFetcher(NewMeritClient(0).WithBaseURL(srv.URL), nil)
	require.NoError(t, f.Run(context.Background(), day("2022-07-29"), day("2022-07-30"), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	readings, err := Load(bytes.NewReader(data), FormatXLSX, DefaultLoaderConfig())
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, "Dadri", readings[0].Station)
	assert.Equal(t, day("2022-07-29"), readings[0].Date)
	assert.InDelta(t, 1200, readings[0].Capability.Float64, 1e-9)
}

func TestFetcher_Run_AbortsOnFailure(t *testing.T) {
	srv := exportServer(t)
	st := testStore(t)
	out := filepath.Join(t.TempDir(), "combined.csv")

	f := NewFetcher(NewMeritClient(0).WithBaseURL(srv.URL), st)
	err := f.Run(context.Background(), day("2022-07-29"), day("2022-07-31"), out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "31 Jul 2022")
	assert.Contains(t, err.Error(), "Not Found")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	runs, err := st.GetRecentIngestRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.False(t, runs[0].Success)
	assert.Equal(t, int64(404), runs[0].HTTPStatus.Int64)
	assert.True(t, runs[0].ErrorMessage.Valid)
}

func TestFetcher_Run_RejectsReversedRange(t *testing.T) {
	f := NewFetcher(NewMeritClient(0), nil)
	err := f.Run(context.Background(), day("2022-07-30"), day("2022-07-29"), filepath.Join(t.TempDir(), "x.csv"))
	assert.Error(t, err)
}

func TestMeritClient_RetriesServerErrors(t *testing.T) {
	body := workbook(t, [][]interface{}{{"Station"}, {"Dadri"}})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Write(body)
	}))
	defer srv.Close()

	export, err := NewMeritClient(1).WithBaseURL(srv.URL).Export(context.Background(), day("2022-07-29"))
	require.NoError(t, err)
	assert.Equal(t, body, export.Body)
	assert.Equal(t, int32(2), hits.Load())
}

func TestMeritClient_NoRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewMeritClient(0).WithBaseURL(srv.URL).Export(context.Background(), day("2022-07-29"))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMeritClient_HTMLBodyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><p>Session expired</p></body></html>"))
	}))
	defer srv.Close()

	_, err := NewMeritClient(3).WithBaseURL(srv.URL).Export(context.Background(), day("2022-07-29"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session expired")
}

func TestParseRecordDate(t *testing.T) {
	got, err := ParseRecordDate("29 Jul 2022")
	require.NoError(t, err)
	assert.Equal(t, day("2022-07-29"), got)

	got, err = ParseRecordDate("2022-07-29")
	require.NoError(t, err)
	assert.Equal(t, day("2022-07-29"), got)

	_, err = ParseRecordDate("29/07/2022")
	assert.Error(t, err)
}
