package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/sensei/pkg/server"
	"github.com/m-mizutani/sensei/pkg/service/mcp"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address of the API server",
			Value:       ":8080",
			Sources:     cli.EnvVars("SENSEI_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server with the MCP endpoint at /mcp",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCases(ctx)
			if err != nil {
				return err
			}
			defer uc.close()

			mcpServer := mcp.New(uc.chat, uc.ingest, uc.topic)
			srv := server.New(server.UseCases{
				Chat:     uc.chat,
				Topic:    uc.topic,
				Quiz:     uc.quiz,
				Ingest:   uc.ingest,
				Messages: uc.repo,
			}, server.WithMCPHandler(mcpServer.Handler()))

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, addr)
		},
	}
}
