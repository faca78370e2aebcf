// Command penguin is a terminal client for a penguin-judge contest
// server: browse contests, read problems, review submissions and sign in,
// all driven off the observable session store. With -dev (or dev = true
// in the config) it runs against an in-process judge server seeded with
// sample data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"goa.design/clue/log"

	"github.com/penguin-judge/penguin-judge-go/api"
	"github.com/penguin-judge/penguin-judge-go/conf"
	"github.com/penguin-judge/penguin-judge-go/judgesrv"
	"github.com/penguin-judge/penguin-judge-go/logger"
	"github.com/penguin-judge/penguin-judge-go/session"
)

func main() {
	configPath := flag.String("config", "penguin.toml", "path to TOML config")
	dev := flag.Bool("dev", false, "run against an embedded judge server")
	flag.Parse()

	ctx := log.Context(context.Background())

	cfg, err := conf.Load(*configPath)
	if err != nil {
		log.Fatalf(ctx, err, "cannot load configuration")
	}
	if *dev {
		cfg.Dev = true
	}

	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	ctx = logger.WithLogger(ctx, slogger)

	baseURL := cfg.BaseURL
	if cfg.Dev {
		baseURL, err = startDevServer(ctx)
		if err != nil {
			log.Fatalf(ctx, err, "cannot start embedded judge server")
		}
	}

	client := api.NewClient(baseURL)
	store := session.NewStore(client)
	store.Init(ctx)

	log.Printf(ctx, "penguin connecting to %s", baseURL)

	p := tea.NewProgram(newModel(ctx, client, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf(ctx, err, "terminal UI stopped")
	}
}

// startDevServer listens on an ephemeral localhost port and serves the
// seeded in-memory judge for the lifetime of the process.
func startDevServer(ctx context.Context) (string, error) {
	srv, err := judgesrv.New(judgesrv.DevSeed(time.Now()))
	if err != nil {
		return "", err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	go func() {
		if err := http.Serve(ln, srv); err != nil {
			log.Printf(ctx, "embedded judge server stopped: %v", err)
		}
	}()
	return "http://" + ln.Addr().String(), nil
}
