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
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/urfave/cli/v3"
)

func quizCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "quiz",
		Usage:     "Take a multiple-choice quiz on a topic",
		ArgsUsage: "<topic>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			topic := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(topic) == "" {
				return goerr.New("topic is required")
			}

			uc, err := cfg.newUseCases(ctx)
			if err != nil {
				return err
			}
			defer uc.close()

			w := c.Root().Writer
			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
			sp.Suffix = " generating quiz..."
			sp.Start()
			quiz, err := uc.quiz.Start(ctx, topic)
			sp.Stop()
			if err != nil {
				return err
			}
			if len(quiz.Questions) == 0 {
				fmt.Fprintln(w, "No questions were generated.")
				return nil
			}

			rl, err := readline.NewEx(&readline.Config{Prompt: "answer> ", Stdout: w})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			var correct int
			next := quiz.Questions[0]
			for next != nil {
				printQuestion(w, next)

				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				result, err := uc.quiz.Answer(ctx, next.ID, line)
				if err != nil {
					return err
				}
				if result.Correct {
					correct++
					fmt.Fprintf(w, "Correct! %s\n\n", result.Explanation)
				} else {
					fmt.Fprintf(w, "Wrong. The answer is %s. %s\n\n", strings.ToUpper(result.CorrectAnswer), result.Explanation)
				}
				next = result.Next
			}

			fmt.Fprintf(w, "Score: %d/%d\n", correct, len(quiz.Questions))
			return nil
		},
	}
}

func printQuestion(w io.Writer, q *model.Question) {
	fmt.Fprintf(w, "Q%d. %s\n", q.Seq+1, q.Text)
	fmt.Fprintf(w, "  A) %s\n  B) %s\n  C) %s\n  D) %s\n", q.Options.A, q.Options.B, q.Options.C, q.Options.D)
}
