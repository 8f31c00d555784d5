package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/curnce/curnce-client/auth"
	"github.com/curnce/curnce-client/gateway"
	"github.com/curnce/curnce-client/internal/config"
	"github.com/curnce/curnce-client/internal/logging"
	"github.com/curnce/curnce-client/resources"
	"github.com/curnce/curnce-client/session"
	"github.com/rs/zerolog/log"
)

const usage = `usage: curnce [flags] <command> [args]

commands:
  login <email> [password]   sign in (password is read from stdin when omitted)
  verify <code>              complete a two-factor login
  logout                     clear the stored session
  whoami                     show the signed in user
  get <path|family>          GET /v1<path> and print the response
  post <path|family> <json>  POST a JSON body to /v1<path>
  routes                     list the resource family names
  export <csv|pdf|xlsx>      download the ledger export
  upload <ticket> <file>     attach a file to a support ticket
  mock                       run a local mock backend

flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	fs := flag.NewFlagSet("curnce", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "dotenv file to load before reading the environment")
	baseURL := fs.String("base-url", "", "override the backend origin (CURNCE_BASE_URL)")
	output := fs.String("o", "", "write binary responses to this file")
	raw := fs.Bool("raw", false, "print the response body as received")
	mockAddr := fs.String("addr", ":4000", "listen address for the mock backend")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Logger = logging.New(cfg.GetLogLevel(), cfg.GetEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, rest := fs.Arg(0), fs.Args()[1:]
	if command == "mock" {
		displayAppname(cfg.GetAppName() + " mock")
		return runMock(ctx, *mockAddr)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := session.NewManager(store)
	if _, err := sessions.Load(ctx); err != nil {
		return err
	}

	nav := gateway.NavigatorFunc(func(_ context.Context, reason error) {
		fmt.Fprintf(os.Stderr, "Your session has ended (%v). Run `curnce login <email>` to sign in again.\n", reason)
	})
	opts := []gateway.Option{gateway.WithLogger(log.Logger), gateway.WithNavigator(nav)}
	if *baseURL != "" {
		opts = append(opts, gateway.WithBaseURL(*baseURL))
	}
	gw := gateway.New(cfg, sessions, opts...)

	app := &app{
		gw:        gw,
		sessions:  sessions,
		auth:      auth.NewContext(gw, sessions, auth.WithNavigator(nav), auth.WithLogger(log.Logger)),
		resources: resources.New(cfg, gw),
		output:    *output,
		raw:       *raw,
	}
	return app.dispatch(ctx, command, rest)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
