package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/lox/gridcast/internal/chart"
	"github.com/lox/gridcast/internal/forecast"
)

type ForecastCmd struct {
	SourceFlags
	Query string `arg:"" help:"A date (YYYY-MM-DD), month (YYYY-MM) or year (YYYY)."`
	Chart string `help:"Also write the chart as a PNG to this path." type:"path"`
}

func (c *ForecastCmd) Run(ctx context.Context, g *Globals) error {
	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	presenter, err := newPresenter(ctx, c.SourceFlags, st)
	if err != nil {
		return err
	}

	result, err := presenter.Present(ctx, c.Query)
	if err != nil {
		return err
	}
	printResult(os.Stdout, result)

	if c.Chart != "" {
		data, err := chart.Render(chart.SpecFor(result))
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.Chart, data, 0o644); err != nil {
			return err
		}
		log.Printf("wrote chart to %s", c.Chart)
	}
	return nil
}

func printResult(w io.Writer, r *forecast.Result) {
	fmt.Fprintf(w, "%s:\n", r.Title)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if len(r.History) > 0 {
		for _, v := range r.History {
			fmt.Fprintf(tw, "%s\t%.2f\t\n", v.Date.Format("2006-01-02"), v.Value)
		}
		fmt.Fprintf(tw, "\t\t\n")
	}
	fmt.Fprintf(tw, "Next week forecast, %s to %s:\t\t\n",
		r.View.ForecastStart().Format("2006-01-02"), r.View.ForecastEnd().Format("2006-01-02"))
	for _, p := range r.Forecast {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", p.Date.Format("2006-01-02"), p.Value)
	}
	tw.Flush()

	if r.Summary != "" {
		fmt.Fprintln(w, r.Summary)
	}
	if r.Narrative != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, r.Narrative)
	}
}
