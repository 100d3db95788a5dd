package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/whispa-ai/whispad/bridge"
	"github.com/whispa-ai/whispad/cache"
	"github.com/whispa-ai/whispad/config"
	"github.com/whispa-ai/whispad/internal/app"
	"github.com/whispa-ai/whispad/surface"
)

var flagDryRun bool

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the native-messaging host (invoked by the browser)",
	RunE:  runHost,
}

func init() {
	hostCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "use an in-memory surface broker instead of the extension")
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		cfg = &config.Config{}
	}
	cfg.APIBaseURL = apiBaseURL(cfg.APIBaseURL)

	snapshots := openCache()

	// The broker writes surface RPCs through the host's serialized writer;
	// host is assigned below, before any message can arrive.
	var (
		broker surface.Broker
		host   *bridge.Host
	)
	if flagDryRun {
		broker = surface.NewMemoryBroker()
	} else {
		broker = bridge.NewBroker(func(data []byte) error { return host.Write(data) })
	}

	svc := app.New(app.Options{
		Config:  cfg,
		Broker:  broker,
		Cache:   snapshots,
		Version: rootCmd.Version,
	})
	defer svc.Shutdown()

	host = bridge.NewHost(os.Stdin, os.Stdout, func(ctx context.Context, raw []byte) any {
		return svc.HandleMessage(ctx, raw)
	})
	if b, ok := broker.(*bridge.Broker); ok {
		host.SetRouter(b.Route)
	}

	slog.Info("host started", "dry_run", flagDryRun, "api", cfg.APIBaseURL)
	return host.Run(cmd.Context())
}

// openCache opens the snapshot cache; a failure degrades to no caching.
func openCache() *cache.Cache {
	dir, err := os.UserCacheDir()
	if err != nil {
		slog.Error("get cache dir", "error", err)
		return nil
	}
	path := filepath.Join(dir, "whispad", "snapshots")
	c, err := cache.New(path)
	if err != nil {
		slog.Error("init cache", "error", err)
		return nil
	}
	slog.Info("cache initialized", "path", path)
	return c
}
