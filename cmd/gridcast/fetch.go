package main

import (
	"context"
	"fmt"

	"github.com/lox/gridcast/internal/ingest"
)

type FetchCmd struct {
	Start     string `help:"First day, DD Mon YYYY or YYYY-MM-DD." required:""`
	End       string `help:"Last day, inclusive." required:""`
	Out       string `help:"Output table (.xlsx or .csv)." default:"data/final.xlsx" type:"path"`
	Retries   int    `help:"Extra attempts per day on throttling or server errors." default:"0" env:"GRIDCAST_FETCH_RETRIES"`
	ExportURL string `help:"Export endpoint." default:"${export_url}" hidden:""`
}

func (c *FetchCmd) Run(ctx context.Context, g *Globals) error {
	start, err := ingest.ParseRecordDate(c.Start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := ingest.ParseRecordDate(c.End)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	client := ingest.NewMeritClient(c.Retries).WithBaseURL(c.ExportURL)
	return ingest.NewFetcher(client, st).Run(ctx, start, end, c.Out)
}
