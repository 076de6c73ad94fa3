package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/sciddle/sciddle/internal/api"
	"github.com/sciddle/sciddle/internal/config"
	"github.com/sciddle/sciddle/internal/games"
	"github.com/sciddle/sciddle/internal/stacks"
	"github.com/sciddle/sciddle/internal/store"
	"github.com/sciddle/sciddle/internal/wikipedia"
	"github.com/sciddle/sciddle/internal/ws"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Sciddle - Taboo-style card game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                Port to listen on (default: 8080)
  DB_PATH             Path to the sqlite database (default: ./sciddle.db)
  DEFAULT_STACK       Id of the default stack (default: 0)
  MIN_CARDS           Minimum cards required to start a game (default: 20)
  MAX_CARD_COUNT      Maximum cards merged from assets (default: 52)
  TIMER               Turn duration in seconds (default: 30)
  SCORE_EASY          Points for an easy card (default: 1)
  SCORE_MEDIUM        Points for a medium card (default: 2)
  SCORE_HARD          Points for a hard card (default: 3)
  API_TIMEOUT         Remote lookup timeout in ms (default: 5000)
  API_DELAY           Delay before remote lookups in ms (default: 0)
  WIKIPEDIA_BASE_URL  MediaWiki API endpoint for extracts

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Sciddle %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	if err := godotenv.Load(); err != nil {
		zerologlog.Debug().Msg("no .env file loaded")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("configuration")
	}
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	stackService := stacks.NewService(stacks.DefaultRegistry(), cfg.MaxCardCount)
	if err := seedStacks(context.Background(), st, stackService); err != nil {
		zerologlog.Fatal().Err(err).Msg("seed stacks")
	}

	weights := games.Weights{Easy: cfg.ScoreEasy, Medium: cfg.ScoreMedium, Hard: cfg.ScoreHard}
	manager := games.NewManager(st, weights)

	extractor := wikipedia.New(cfg.WikipediaBaseURL,
		time.Duration(cfg.APITimeout)*time.Millisecond,
		time.Duration(cfg.APIDelay)*time.Millisecond)

	api.New(st, stackService, manager, extractor, api.Limits{DefaultStack: cfg.DefaultStack, MinCards: cfg.MinCards, TurnTime: cfg.Timer}).Register(r)

	// Socket server pushing stack state on every persisted change
	sock := ws.New(st)
	io := sock.Mount(r)
	defer io.Close()
	events, cancel := st.Subscribe()
	defer cancel()
	go sock.Run(context.Background(), events)

	zerologlog.Info().Str("port", port).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server")
	}
}

// seedStacks persists any bundled stack that has no persisted counterpart
// yet, so clients always find the default decks.
func seedStacks(ctx context.Context, st *store.Store, svc *stacks.Service) error {
	existing, err := st.FindAllStacks(ctx)
	if err != nil {
		return err
	}
	for _, id := range svc.UninitializedStackIDs(existing) {
		stack, err := svc.NewStack(id)
		if err != nil {
			return err
		}
		if err := st.UpdateStack(ctx, stack); err != nil {
			return err
		}
		zerologlog.Info().Str("stackId", id).Str("title", stack.Title).Msg("seeded stack")
	}
	return nil
}
