package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "sensei",
		Usage: "Personal learning assistant backed by retrieval and Gemini",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			ingestCommand(),
			topicsCommand(),
			quizCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
