package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/auracare/auracare/internal/api"
	"github.com/auracare/auracare/internal/config"
	"github.com/auracare/auracare/internal/engine"
	"github.com/auracare/auracare/internal/generative"
	"github.com/auracare/auracare/internal/journal"
	"github.com/auracare/auracare/internal/profile"
	"github.com/auracare/auracare/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the auracare server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running auracare server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show auracare system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "auracare.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "auracare version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	apiToken, err := config.GetAPIToken(config.NewSecretStore())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("auracare is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("auracare is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Detect(engine.DetectConfig{
		Backend:       cfg.Generation.Backend,
		Timeout:       cfg.GenerationTimeout(),
		OllamaBaseURL: cfg.Ollama.BaseURL,
		CloudBaseURL:  cfg.Cloud.BaseURL,
		CloudAPIKey:   cfg.Cloud.APIKey,
	})
	if err != nil {
		return fmt.Errorf("detecting generation backend: %w", err)
	}
	// Heuristic insights work without a model, so an unready backend only
	// degrades the generative routes to their fallbacks.
	if err := engine.EnsureReady(ctx, eng, cfg.Model(), os.Stderr); err != nil {
		printWarning("generation backend not ready: %v", err)
		printWarning("AI insights will use fallback responses until it is available")
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	if n, err := store.RequeueRunningJobs(); err != nil {
		slog.Warn("requeueing interrupted jobs", "error", err)
	} else if n > 0 {
		slog.Info("requeued interrupted jobs", "count", n)
	}

	profileMgr := profile.NewManager(store)
	adapter := generative.NewAdapter(eng, cfg.Model(), logger)

	deps := api.Deps{
		Store:        store,
		Profile:      profileMgr,
		Generator:    adapter,
		Token:        apiToken,
		Location:     cfg.Location(),
		HistoryLimit: cfg.Insights.HistoryLimit,
		Logger:       logger,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	worker := journal.NewWorker(store, adapter, cfg.PollInterval(), logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "auracare listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if cfg.Server.MCPEnabled {
		mcpSrv := api.NewMCPServer(deps, version)
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("auracare is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop auracare (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to auracare (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	eng, err := engine.Detect(engine.DetectConfig{
		Backend:       cfg.Generation.Backend,
		Timeout:       2 * time.Second,
		OllamaBaseURL: cfg.Ollama.BaseURL,
		CloudBaseURL:  cfg.Cloud.BaseURL,
		CloudAPIKey:   cfg.Cloud.APIKey,
	})
	if err != nil {
		printStatus("Backend", "misconfigured (%v)", err)
	} else if eng.IsRunning(ctx) {
		printStatus("Backend", "%s (reachable)", eng.Name())
	} else {
		printStatus("Backend", "%s (not reachable)", eng.Name())
	}
	printStatus("Model", "%s", cfg.Model())

	apiToken, tokenErr := config.GetAPIToken(config.NewSecretStore())
	if tokenErr == nil && running {
		c := &apiClient{baseURL: serverURL, token: apiToken, httpClient: client}
		var stats struct {
			CheckIns       int `json:"checkIns"`
			JournalEntries int `json:"journalEntries"`
		}
		if err := c.call(ctx, http.MethodGet, "/stats", nil, &stats); err == nil {
			printStatus("Check-ins", "%d", stats.CheckIns)
			printStatus("Journal", "%d", stats.JournalEntries)
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
