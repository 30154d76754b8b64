package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jask/claritycanvas/internal/config"
	"github.com/jask/claritycanvas/internal/database"
	"github.com/jask/claritycanvas/internal/database/repository"
	"github.com/jask/claritycanvas/internal/llm"
	"github.com/jask/claritycanvas/internal/secrets"
	"github.com/jask/claritycanvas/internal/server"
	"github.com/jask/claritycanvas/internal/session"
	"github.com/jask/claritycanvas/internal/tui"
)

const usage = `usage:
  claritycanvas              run the terminal canvas
  claritycanvas serve        serve the session over HTTP
  claritycanvas key set <provider> <api-key>
  claritycanvas key delete <provider>`

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "key" {
		if err := keyCommand(args[1:]); err != nil {
			log.Fatalf("key: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if created, err := config.EnsureProfile(&cfg); err != nil {
		log.Printf("warn: save profile id: %v", err)
	} else if created {
		log.Printf("created profile %s", cfg.Session.Profile)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	switch {
	case len(args) == 0:
		runTUI(ctx, cfg, db, reg)
	case args[0] == "serve":
		runServer(ctx, cfg, db, reg)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func runTUI(ctx context.Context, cfg config.Config, db *sql.DB, reg *prometheus.Registry) {
	logPath := filepath.Join(filepath.Dir(cfg.Database.Path), "claritycanvas.log")
	f, err := tea.LogToFile(logPath, "claritycanvas")
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer f.Close()

	notices := tui.NewNotices()
	ctrl := newController(ctx, cfg, db, reg, notices.Push)
	app := tui.New(ctx, ctrl, notices, tui.Options{
		ExportDir: cfg.Export.Dir,
		Exports:   repository.NewExportRepo(db, cfg.Session.Profile),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Printf("error: %v\n", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, db *sql.DB, reg *prometheus.Registry) {
	ctrl := newController(ctx, cfg, db, reg, server.LogNotice)
	srv := server.New(ctrl, repository.NewExportRepo(db, cfg.Session.Profile), reg)
	hs := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Routes(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Printf("warn: shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.Server.Addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}

func newController(ctx context.Context, cfg config.Config, db *sql.DB, reg prometheus.Registerer, notify func(session.Notice)) *session.Controller {
	provider, err := llm.NewProvider(cfg.LLM.Provider, resolveAPIKey(cfg), cfg.LLM.Model, cfg.LLM.Endpoint)
	if err != nil {
		log.Printf("warn: %v; using offline provider", err)
		provider = llm.NewOfflineProvider()
	}
	gw := llm.NewGateway(provider, llm.WithTimeout(cfg.LLM.Timeout), llm.WithMetrics(llm.NewMetrics(reg)))

	store := session.NewStore(repository.NewBlobRepo(db, cfg.Session.Profile, cfg.Session.MaxBlobBytes))
	ctrl := session.NewController(ctx, store, gw, session.Options{
		AppName: cfg.Session.AppName,
		LockPIN: cfg.Session.LockPIN,
		Notify:  notify,
	})
	if err := ctrl.Load(); err != nil {
		log.Printf("warn: starting with an empty canvas: %v", err)
	}
	if cfg.Session.Incognito {
		if err := ctrl.ToggleIncognito(true); err != nil {
			log.Printf("warn: incognito: %v", err)
		}
	}
	return ctrl
}

func resolveAPIKey(cfg config.Config) string {
	provider := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		switch provider {
		case "azure":
			env = "AZURE_OPENAI_API_KEY"
		default:
			env = "OPENAI_API_KEY"
		}
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if kr, err := secrets.Open(""); err != nil {
		log.Printf("warn: open keyring: %v", err)
	} else if k, err := kr.Get(provider); err == nil {
		return k
	} else if !errors.Is(err, secrets.ErrNotFound) {
		log.Printf("warn: read stored key: %v", err)
	}
	return strings.TrimSpace(cfg.LLM.APIKey)
}

func keyCommand(args []string) error {
	kr, err := secrets.Open("")
	if err != nil {
		return err
	}
	switch {
	case len(args) == 3 && args[0] == "set":
		return kr.Set(args[1], args[2])
	case len(args) == 2 && args[0] == "delete":
		return kr.Delete(args[1])
	}
	return errors.New(usage)
}
