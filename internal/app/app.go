package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http"
	"github.com/yungbote/tutorstudio-backend/internal/observability"
	"github.com/yungbote/tutorstudio-backend/internal/platform/envutil"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/platform/shutdown"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	server       *http.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	loadedEnv := envutil.LoadDotEnv()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if loadedEnv {
		log.Info("Loaded .env")
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(ServiceName))

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(clients.Store, log)
	if err := seedPrompts(ctx, log, cfg.SystemPromptsFile, reposet.Prompt); err != nil {
		clients.Close(ctx, log)
		_ = otelShutdown(ctx)
		log.Sync()
		return nil, err
	}

	serviceset := wireServices(log, cfg, clients, reposet)
	handlerset := wireHandlers(log, cfg, clients.Store, serviceset)
	router := wireRouter(log, cfg, handlerset)

	return &App{
		Log:          log,
		Router:       router,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		server:       &http.Server{Engine: router},
		otelShutdown: otelShutdown,
	}, nil
}

// seedPrompts upserts the system prompts from path, when one is set.
func seedPrompts(ctx context.Context, log *logger.Logger, path string, prompts repos.PromptRepo) error {
	if path == "" {
		log.Warn("SYSTEM_PROMPTS_FILE not set; relying on prompts already in the store")
		return nil
	}
	list, err := repos.LoadPromptFile(path)
	if err != nil {
		return fmt.Errorf("load system prompts: %w", err)
	}
	if err := prompts.Seed(ctx, list); err != nil {
		return fmt.Errorf("seed system prompts: %w", err)
	}
	log.Info("Seeded system prompts", "count", len(list), "file", path)
	return nil
}

// Run serves HTTP until Shutdown is called.
func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server starting", "addr", addr)
	return a.server.Run(addr)
}

// Shutdown stops accepting requests, cancels every poll task and closes
// clients. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) {
	if a == nil {
		return
	}
	var steps []shutdown.Step
	if a.server != nil {
		steps = append(steps, shutdown.Step{Name: "http", Fn: a.server.Shutdown})
	}
	if poller := a.Services.Poller; poller != nil {
		steps = append(steps, shutdown.Step{Name: "finetune_poller", Fn: func(ctx context.Context) error {
			if err := poller.Shutdown(ctx); err != nil {
				return fmt.Errorf("%d poll tasks still running: %w", len(poller.Active()), err)
			}
			return nil
		}})
	}
	clients := a.Clients
	a.Clients = Clients{}
	steps = append(steps, shutdown.Step{Name: "clients", Fn: func(ctx context.Context) error {
		clients.Close(ctx, a.Log)
		return nil
	}})
	if a.otelShutdown != nil {
		steps = append(steps, shutdown.Step{Name: "otel", Fn: a.otelShutdown})
		a.otelShutdown = nil
	}

	if failed := shutdown.Run(ctx, a.Log, shutdownTimeout, steps...); len(failed) > 0 {
		a.Log.Warn("Shutdown finished with errors", "failed_steps", failed)
	} else {
		a.Log.Info("Shutdown complete")
	}
	a.Log.Sync()
}
