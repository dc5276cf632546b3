package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"algotutor/internal/app/identity"
	"algotutor/internal/app/tracker"
	"algotutor/internal/domain/model"
	"algotutor/internal/platform/backend"
	"algotutor/internal/platform/config"
	"algotutor/internal/platform/logging"

	"github.com/gosimple/slug"
	"github.com/urfave/cli/v3"
)

var errNoUsername = errors.New("username is not set")

type app struct {
	out   io.Writer
	cfg   *config.Config
	store *identity.Store

	viaGateway bool
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	logging.Setup(cfg.LogLevel)

	path := cmd.String("identity")
	if path == "" {
		if path, err = identity.DefaultPath(); err != nil {
			return ctx, err
		}
	}
	if a.store, err = identity.Load(path); err != nil {
		return ctx, err
	}
	a.viaGateway = cmd.Bool("via-gateway")
	return ctx, nil
}

// judge talks to the backend, or to the gateway which serves the same paths
// under its proxy prefix.
func (a *app) judge() *backend.Client {
	base, prefix := judgeEndpoint(a.cfg, a.viaGateway)
	return backend.NewClient(base, prefix, a.cfg.UpstreamTimeout, a.tokenOption()...)
}

func judgeEndpoint(cfg *config.Config, viaGateway bool) (base, apiPrefix string) {
	if viaGateway {
		return cfg.GatewayURL, "/" + strings.Trim(cfg.ProxyPrefix, "/")
	}
	return cfg.BackendURL.String(), backend.DefaultAPIPrefix
}

func (a *app) gateway() *backend.Client {
	return backend.NewClient(a.cfg.GatewayURL, backend.DefaultAPIPrefix, a.cfg.UpstreamTimeout, a.tokenOption()...)
}

func (a *app) tokenOption() []backend.Option {
	if id := a.store.Get(); id.IsLogged && id.Token != "" {
		return []backend.Option{backend.WithToken(id.Token)}
	}
	return nil
}

// retryOnce repeats a read call once when the backend asked us to back off.
func retryOnce[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	var apiErr *backend.APIError
	if err == nil || !errors.As(err, &apiErr) || apiErr.RetryAfter == 0 {
		return v, err
	}
	select {
	case <-ctx.Done():
		return v, err
	case <-time.After(apiErr.RetryAfter):
	}
	return fn(ctx)
}

func (a *app) listQuestions(ctx context.Context, _ *cli.Command) error {
	qs, err := retryOnce(ctx, a.judge().ListQuestions)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	renderQuestionList(a.out, qs)
	return nil
}

func questionSlug(args []string) string {
	return slug.Make(strings.Join(args, " "))
}

func (a *app) showQuestion(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return errors.New("a question slug or title is required")
	}
	s := questionSlug(cmd.Args().Slice())
	q, err := retryOnce(ctx, func(ctx context.Context) (*model.Question, error) {
		return a.judge().GetQuestion(ctx, s)
	})
	if err != nil {
		return fmt.Errorf("question %s: %w", s, err)
	}
	renderQuestion(a.out, q, cmd.String("language"))
	return nil
}

func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", errors.New("source is empty")
	}
	return string(b), nil
}

func (a *app) submit(ctx context.Context, cmd *cli.Command) error {
	if !a.store.Get().IsSet {
		return errNoUsername
	}
	code, err := readSource(cmd.String("file"))
	if err != nil {
		return err
	}

	tr := tracker.New(a.judge(), tracker.Options{
		Interval: a.cfg.TrackerPollInterval,
		MaxPolls: a.cfg.TrackerMaxPolls,
		Observer: progressPrinter(a.out),
	})
	st, err := tr.Run(ctx, model.SubmitRequest{
		QuestionID: cmd.String("question"),
		Code:       code,
		Language:   cmd.String("language"),
	})
	if st != nil && st.Status.IsTerminal() {
		renderResult(a.out, st)
	}
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if !st.AllPassed() {
		return fmt.Errorf("%d of %d tests passed", st.TotalPassed, st.TotalTests)
	}
	return nil
}

// userMessage is how a command error is printed.
func userMessage(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, errNoUsername):
		return "Please set your username first"
	case errors.Is(err, tracker.ErrStatusCheckFailed):
		return "Failed to check submission status"
	case errors.Is(err, tracker.ErrMissingSubmissionID):
		return "Failed to submit code"
	case errors.As(err, &apiErr), errors.Is(err, backend.ErrUnexpected), errors.Is(err, context.Canceled):
		return backend.Message(err)
	}
	return err.Error()
}

func (a *app) status(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("a submission id is required")
	}
	st, err := retryOnce(ctx, func(ctx context.Context) (*model.SubmissionStatus, error) {
		return a.judge().Status(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("status %s: %w", id, err)
	}
	renderResult(a.out, st)
	return nil
}

func (a *app) login(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if name == "" {
		return errors.New("a username is required")
	}
	if err := a.store.SetUsername(name); err != nil {
		return err
	}

	session, err := a.gateway().CreateSession(ctx, name)
	if err != nil {
		fmt.Fprintf(a.out, "display name set to %s (no session: %s)\n", name, backend.Message(err))
		return nil
	}
	if err := a.store.Login(session.Username, session.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s until %s\n", session.Username, session.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *app) logout(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("forget") {
		return a.store.ClearUsername()
	}
	return a.store.Logout()
}

func (a *app) whoami(_ context.Context, _ *cli.Command) error {
	renderIdentity(a.out, a.store.Get())
	return nil
}

func voiceParticipant() (name, room string) {
	name = fmt.Sprintf("user-%d", rand.IntN(1000))
	return name, "livekit-voice-room3" + name
}

func (a *app) voice(ctx context.Context, _ *cli.Command) error {
	name, room := voiceParticipant()
	token, err := a.gateway().VoiceToken(ctx, name, room)
	if err != nil {
		return fmt.Errorf("voice token: %w", err)
	}
	renderVoice(a.out, a.cfg.VoiceServiceURL, name, room, token)
	return nil
}
