package main

import (
	"context"
	"log"

	"github.com/lox/gridcast/internal/api"
)

type ServeCmd struct {
	SourceFlags
	Port string `help:"HTTP server port." default:"8080" env:"GRIDCAST_PORT"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	st, closeDB, err := openStore(g.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	presenter, err := newPresenter(ctx, c.SourceFlags, st)
	if err != nil {
		return err
	}

	server := api.NewServer(presenter, st, c.Port)
	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}
