package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/storyfield/go-client/api"
	"github.com/storyfield/go-client/api/refresh"
	"github.com/storyfield/go-client/auth"
	"github.com/storyfield/go-client/internal/config"
	"github.com/storyfield/go-client/session"
	"github.com/storyfield/go-client/speech"
	"github.com/storyfield/go-client/storage"
)

const usage = `usage: storyfield <command> [flags]

commands:
  status                    show the restored session state
  login -email -password    authenticate and persist the session
  logout                    revoke the refresh token and clear the session
  profile                   fetch the logged-in user's profile
  transcribe <audio file>   convert a recording to text
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		fmt.Print(usage)
		return errors.New("missing command")
	}

	c := config.New()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := context.Background()

	app, err := buildApp(c, logger)
	if err != nil {
		return err
	}

	// Nothing runs against the backend until the session restore has
	// resolved one way or the other.
	app.session.Restore(ctx)

	switch args[0] {
	case "status":
		return app.status(c)
	case "login":
		return app.login(ctx, args[1:])
	case "logout":
		app.auth.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "profile":
		return app.profile(ctx)
	case "transcribe":
		return app.transcribe(ctx, c, args[1:])
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type app struct {
	session *session.Manager
	auth    *auth.Service
}

func buildApp(c config.Config, logger zerolog.Logger) (*app, error) {
	store, err := storage.NewStore(storage.StoreTypeFile,
		storage.WithFileDir(filepath.Join(c.GetDataFolder(), "session")))
	if err != nil {
		return nil, fmt.Errorf("storage.NewStore: %w", err)
	}
	store = storage.NewFailSoft(store, logger)

	sess, err := session.NewManager(store, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	strategy, err := buildStrategy(c, sess, store)
	if err != nil {
		return nil, err
	}
	coordinator, err := refresh.NewCoordinator(strategy, sess, refresh.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(c.GetBaseURL(), sess, store,
		api.WithRefresher(coordinator),
		api.WithTimeout(c.GetRequestTimeout()),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(client, sess, auth.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &app{session: sess, auth: authService}, nil
}

func buildStrategy(c config.Config, sess *session.Manager, store storage.Store) (refresh.Strategy, error) {
	switch c.GetRefreshStrategy() {
	case "cookie":
		return refresh.NewCookieStrategy(c.GetBaseURL())
	case "bearer":
		return refresh.NewBearerStrategy(c.GetBaseURL(), sess, store)
	default:
		return nil, fmt.Errorf("unknown refresh strategy %q", c.GetRefreshStrategy())
	}
}

func (a *app) status(c config.Config) error {
	displayAppname(c.GetAppName())

	snap := a.session.Snapshot()
	fmt.Printf("status: %s\n", snap.Status)
	if !snap.IsAuthenticated {
		return nil
	}

	fmt.Printf("user: %s\n", snap.User.UUID)
	if expiry, ok := a.session.AccessTokenExpiry(); ok {
		state := "valid"
		if a.session.IsAccessTokenExpired() {
			state = "expired, will refresh on next request"
		}
		fmt.Printf("access token: %s (expires %s)\n", state, expiry.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	user, err := a.auth.Login(ctx, auth.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", user.UUID)
	return nil
}

func (a *app) profile(ctx context.Context) error {
	user, err := a.auth.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("uuid: %s\nemail: %s\nusername: %s\n", user.UUID, user.Email, user.Username)
	return nil
}

func (a *app) transcribe(ctx context.Context, c config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("transcribe requires exactly one audio file path")
	}

	transcriber := speech.NewTranscriber(c.GetSpeechAPIKey(),
		speech.WithEndpoint(c.GetSpeechEndpoint()),
		speech.WithLanguage(c.GetSpeechLanguage()),
		speech.WithSampleRate(c.GetSpeechSampleRate()),
	)

	result := transcriber.Transcribe(ctx, args[0])
	if !result.Success {
		return errors.New(result.Error)
	}
	fmt.Println(result.Text)
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
