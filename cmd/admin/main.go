package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/clouddrive/internal/admin"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
)

func main() {
	open := func(ctx context.Context, cfg *config.Config) (admin.Backend, func() error, error) {
		app, err := server.NewApp(ctx, cfg, logging.New(os.Stderr, cfg.LogLevel, "text"))
		if err != nil {
			return nil, nil, err
		}
		return app.Users(), app.Close, nil
	}

	if err := admin.NewRootCmd(open).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
