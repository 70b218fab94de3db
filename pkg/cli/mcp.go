package cli

import (
	"context"

	"github.com/m-mizutani/sensei/pkg/service/mcp"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCases(ctx)
			if err != nil {
				return err
			}
			defer uc.close()

			return mcp.New(uc.chat, uc.ingest, uc.topic).RunStdio(ctx)
		},
	}
}
