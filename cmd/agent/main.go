package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/config"
	"github.com/phizone/player-agent/internal/domain/agent"
	"github.com/phizone/player-agent/internal/domain/relay"
	"github.com/phizone/player-agent/internal/domain/renderconfig"
	"github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/infrastructure/chatlog"
	"github.com/phizone/player-agent/internal/infrastructure/database"
	"github.com/phizone/player-agent/internal/infrastructure/jobclient"
	"github.com/phizone/player-agent/internal/infrastructure/logger"
	"github.com/phizone/player-agent/internal/infrastructure/observability"
	configrepo "github.com/phizone/player-agent/internal/infrastructure/repository/renderconfig"
	roomrepo "github.com/phizone/player-agent/internal/infrastructure/repository/room"
	"github.com/phizone/player-agent/internal/infrastructure/store"
	"github.com/phizone/player-agent/internal/infrastructure/stream"
	"github.com/phizone/player-agent/internal/interfaces/commands"
	"github.com/phizone/player-agent/internal/interfaces/httpserver"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	router     *agent.Router
	reconciler *agent.Reconciler
	stream     *stream.Client
	log        zerolog.Logger
}

// Start runs the application until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.router.Start(ctx)
	a.reconciler.Start(ctx)

	err := a.httpServer.Run(ctx)

	a.reconciler.Stop()
	a.router.Stop()
	if closeErr := a.stream.Close(); closeErr != nil {
		a.log.Error().Err(closeErr).Msg("failed to close event stream")
	}

	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	rooms, configRepo, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	jobs := jobclient.New(cfg.APIBaseURL, cfg.APINamespace, cfg.APISecret, cfg.APITimeout, log)
	defer func() {
		if err := jobs.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close job client")
		}
	}()

	chat := chatlog.New(log)
	configs := renderconfig.NewService(configRepo, log)
	registry := run.NewRegistry(log)

	streamClient := stream.New(cfg.APIWebsocketURL, log)

	tempDir := cfg.RelayTempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	artifactRelay := relay.New(chat, &http.Client{Timeout: cfg.APITimeout}, tempDir, cfg.RelayMaxInFlight, log)

	svc := agent.NewService(registry, rooms, configs, jobs, streamClient, chat, log)
	router := agent.NewRouter(streamClient, rooms, jobs, artifactRelay, chat, cfg.EventTimeout, log)
	reconciler := agent.NewReconciler(rooms, jobs, router, cfg.ReconcileInterval, log)

	// Joins do not survive a socket reconnect; rejoin every live room.
	streamClient.OnConnect(func() {
		rejoinCtx, cancel := context.WithTimeout(context.Background(), cfg.EventTimeout)
		defer cancel()

		records, err := rooms.List(rejoinCtx)
		if err != nil {
			log.Error().Err(err).Msg("failed to list rooms for rejoin")
			return
		}
		for _, record := range records {
			if err := streamClient.Join(rejoinCtx, record.Address); err != nil {
				log.Error().Err(err).Str("target", record.Address.String()).Msg("failed to rejoin room")
			}
		}
	})
	if err := streamClient.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to event stream")
	}

	dispatcher := commands.NewDispatcher(svc, chat, log)
	go runConsole(ctx, dispatcher, log)

	app := &Application{
		httpServer: httpserver.New(cfg, log, rooms),
		router:     router,
		reconciler: reconciler,
		stream:     streamClient,
		log:        log,
	}

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// buildStores wires persistent room and config storage when a database DSN is
// configured, and falls back to in-memory stores otherwise.
func buildStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (room.Store, renderconfig.Repository, error) {
	if cfg.DatabaseDSN == "" {
		log.Warn().Msg("no database configured, rooms and configs will not survive restarts")
		return store.NewMemoryStore(log), store.NewMemoryConfigRepo(log), nil
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, nil, err
	}
	return roomrepo.NewRepository(db), configrepo.NewRepository(db), nil
}

// runConsole reads command lines from stdin, one per line, acting as the
// local operator conversation. File attachments are entered as "file <url>".
func runConsole(ctx context.Context, dispatcher *commands.Dispatcher, log zerolog.Logger) {
	const user = "console"
	conv := transport.ConversationRef{ChatID: "console", Private: true}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		if url, ok := strings.CutPrefix(line, "file "); ok {
			url = strings.TrimSpace(url)
			err = dispatcher.HandleFile(ctx, user, conv, run.FileRef{Name: path.Base(url), FileID: url})
		} else {
			err = dispatcher.Handle(ctx, user, conv, line)
		}
		if err != nil {
			log.Error().Err(err).Str("line", line).Msg("command failed")
		}
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Overload(p); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", p, err)
			}
		}
	}
}
