package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg    config
		source string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Aliases:     []string{"s"},
			Usage:       "Source identifier of text files. Defaults to the file name",
			Destination: &source,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Add a text or PDF file to the knowledge base",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.New("file path is required")
			}

			uc, err := cfg.newUseCases(ctx)
			if err != nil {
				return err
			}
			defer uc.close()

			name := filepath.Base(path)
			var n int
			if strings.EqualFold(filepath.Ext(name), ".pdf") {
				f, err := os.Open(filepath.Clean(path))
				if err != nil {
					return goerr.Wrap(err, "failed to open file", goerr.V("path", path))
				}
				defer f.Close()

				n, err = uc.ingest.PDF(ctx, name, f)
				if err != nil {
					return err
				}
			} else {
				data, err := os.ReadFile(filepath.Clean(path))
				if err != nil {
					return goerr.Wrap(err, "failed to read file", goerr.V("path", path))
				}
				if source == "" {
					source = name
				}
				n, err = uc.ingest.Text(ctx, string(data), source)
				if err != nil {
					return err
				}
				name = source
			}

			fmt.Fprintf(c.Root().Writer, "Ingested %d chunks from %s\n", n, name)
			return nil
		},
	}
}
