package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: color.Output}
	if err := a.command().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("algotutor:"), userMessage(err))
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "algotutor",
		Usage: "practice algorithm questions against the judging backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "identity",
				Usage:   "path of the identity file",
				Sources: cli.EnvVars("ALGOTUTOR_IDENTITY"),
			},
			&cli.BoolFlag{
				Name:  "via-gateway",
				Usage: "send question and submission calls through the gateway instead of the backend",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:   "questions",
				Usage:  "list questions",
				Action: a.listQuestions,
			},
			{
				Name:      "question",
				Usage:     "show one question",
				ArgsUsage: "SLUG_OR_TITLE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "print the starter code for this language slug"},
				},
				Action: a.showQuestion,
			},
			{
				Name:  "submit",
				Usage: "submit a solution and wait for the verdict",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "question", Aliases: []string{"q"}, Usage: "question id", Required: true},
					&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "language id", Required: true},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "source file, - for stdin", Required: true},
				},
				Action: a.submit,
			},
			{
				Name:      "status",
				Usage:     "fetch the status of a submission once",
				ArgsUsage: "SUBMISSION_ID",
				Action:    a.status,
			},
			{
				Name:      "login",
				Usage:     "set the display name and obtain a session token",
				ArgsUsage: "USERNAME",
				Action:    a.login,
			},
			{
				Name:  "logout",
				Usage: "drop the session token",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "forget", Usage: "also forget the display name"},
				},
				Action: a.logout,
			},
			{
				Name:   "whoami",
				Usage:  "print the stored identity",
				Action: a.whoami,
			},
			{
				Name:   "voice",
				Usage:  "fetch a token for the voice assistant room",
				Action: a.voice,
			},
		},
	}
}
