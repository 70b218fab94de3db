package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func topicsCommand() *cli.Command {
	var (
		cfg    config
		format string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format (text, yaml)",
			Value:       "text",
			Destination: &format,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "topics",
		Usage: "List topics learned from past conversations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, err := cfg.newUseCases(ctx)
			if err != nil {
				return err
			}
			defer uc.close()

			topics, err := uc.topic.List(ctx)
			if err != nil {
				return err
			}

			return printTopics(c.Root().Writer, format, topics)
		},
	}
}

type topicView struct {
	Topic       string    `yaml:"topic"`
	Description string    `yaml:"description"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

func printTopics(w io.Writer, format string, topics []*model.LearningTopic) error {
	switch format {
	case "text":
		if len(topics) == 0 {
			fmt.Fprintln(w, "No topics learned yet.")
			return nil
		}
		for _, t := range topics {
			fmt.Fprintf(w, "%s\n    %s\n", t.Topic, t.Description)
		}
		return nil

	case "yaml":
		views := make([]topicView, len(topics))
		for i, t := range topics {
			views[i] = topicView{Topic: t.Topic, Description: t.Description, UpdatedAt: t.UpdatedAt}
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(views); err != nil {
			return goerr.Wrap(err, "failed to encode topics")
		}
		return nil

	default:
		return goerr.New("unknown format", goerr.V("format", format))
	}
}
