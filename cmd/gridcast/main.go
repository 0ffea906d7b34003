package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/gridcast/internal/forecast"
	"github.com/lox/gridcast/internal/ingest"
	"github.com/lox/gridcast/internal/narrative"
	"github.com/lox/gridcast/internal/pipeline"
	"github.com/lox/gridcast/internal/store"
)

// Globals are flags shared by every command.
type Globals struct {
	DB string `help:"Path to SQLite database." default:"data/gridcast.db" env:"GRIDCAST_DB" type:"path"`
}

// SourceFlags locate and describe the station table.
type SourceFlags struct {
	Data             string   `help:"Station table: .xlsx or .csv path, or ftp:// URL." required:"" env:"GRIDCAST_DATA"`
	Sheet            string   `help:"Workbook sheet (default first)." env:"GRIDCAST_SHEET"`
	Categories       []string `help:"Station categories to include." default:"Gas,Nuclear,Thermal" env:"GRIDCAST_CATEGORIES"`
	StationColumn    string   `help:"Station column header." default:"Station" env:"GRIDCAST_STATION_COLUMN"`
	DateColumn       string   `help:"Date column header." default:"Date" env:"GRIDCAST_DATE_COLUMN"`
	CategoryColumn   string   `help:"Category column header." default:"Type Of Station" env:"GRIDCAST_CATEGORY_COLUMN"`
	CapabilityColumn string   `help:"Capability column header." default:"Declared Capability (MWh)" env:"GRIDCAST_CAPABILITY_COLUMN"`
	OpenAIKey        string   `help:"OpenAI API key for narratives (optional)." name:"openai-key" env:"OPENAI_API_KEY"`
}

func (f SourceFlags) loaderConfig() ingest.LoaderConfig {
	return ingest.LoaderConfig{
		StationColumn:    f.StationColumn,
		DateColumn:       f.DateColumn,
		CategoryColumn:   f.CategoryColumn,
		CapabilityColumn: f.CapabilityColumn,
		Categories:       f.Categories,
		Sheet:            f.Sheet,
	}
}

type CLI struct {
	Globals

	Serve    ServeCmd    `cmd:"" help:"Serve the forecast web UI and JSON API."`
	Forecast ForecastCmd `cmd:"" help:"Answer one query on the command line."`
	Fetch    FetchCmd    `cmd:"" help:"Download daily station exports into one table."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("gridcast"),
		kong.Description("Daily non-renewable energy consumption forecaster."),
		kong.UsageOnError(),
		kong.Vars{"export_url": ingest.DefaultExportURL},
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	kctx.BindTo(ctx, (*context.Context)(nil))

	kctx.FatalIfErrorf(kctx.Run(&cli.Globals))
}

func openStore(path string) (*store.Store, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Println("database migrated")
	return st, func() { db.Close() }, nil
}

// newPresenter loads the station table, builds the national series and
// wires the presenter's optional request log and narrator.
func newPresenter(ctx context.Context, src SourceFlags, st *store.Store) (*forecast.Presenter, error) {
	readings, err := ingest.LoadSource(ctx, src.Data, src.loaderConfig())
	if err != nil {
		return nil, err
	}
	series := pipeline.Build(readings)

	opts := []forecast.PresenterOption{forecast.WithRequestLogger(st)}
	if gen, err := narrative.NewGenerator(src.OpenAIKey); err != nil {
		log.Printf("narratives disabled: %v", err)
	} else {
		opts = append(opts, forecast.WithNarrator(gen))
	}
	return forecast.NewPresenter(forecast.NewForecaster(series), opts...), nil
}
