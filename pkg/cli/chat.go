package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg         config
		historyFile string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history-file",
			Usage:       "File to keep input history",
			Sources:     cli.EnvVars("SENSEI_HISTORY_FILE"),
			Destination: &historyFile,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk with the learning assistant interactively",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCases(ctx)
			if err != nil {
				return err
			}
			defer uc.close()

			w := c.Root().Writer
			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "> ",
				HistoryFile: historyFile,
				Stdout:      w,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat session started. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
				sp.Suffix = " thinking..."
				sp.Start()
				reply, err := uc.chat.Send(ctx, message)
				sp.Stop()

				if err != nil {
					// Keep the session alive. The user message is already stored.
					logging.From(ctx).Error("failed to answer", "error", err)
					fmt.Fprintf(w, "Failed to answer: %s\n", err.Error())
					continue
				}

				fmt.Fprintf(w, "\n%s\n", reply.Answer.Text)
				if len(reply.Suggestions) > 0 {
					fmt.Fprintf(w, "\nNext steps:\n")
					for i, s := range reply.Suggestions {
						fmt.Fprintf(w, "  %d. %s\n", i+1, s)
					}
				}
				fmt.Fprintln(w)
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return nil
		},
	}
}
