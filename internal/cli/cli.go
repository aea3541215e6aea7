// ============================================================================
// Data Loader CLI
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command line front end for exercising a DataLoader
//          from the shell: run a manifest of requests end to end, or serve
//          the Prometheus metrics endpoint standalone.
//
// Command structure:
//   dataloaderctl
//   ├── run                  # load a request manifest, register each, build the top
//   │   ├── --config, -c
//   │   └── --manifest, -m
//   ├── serve                # start the metrics endpoint and block for signals
//   │   └── --config, -c
//   └── status               # print the resolved configuration
//       └── --config, -c
//
// A single DataLoader instance in this package is out of process scope: it
// only ever runs within one `run` invocation, since the underlying core
// carries no persistence or cross-process coordination (see its Non-goals).
// There is deliberately no separate "register" / "build" pair of commands
// backed by a long-lived daemon: without a wire protocol wired up (protobuf
// and gRPC are not used by this repo -- see DESIGN.md), two CLI invocations
// cannot share loader state, so "run" performs both steps in one process.
//
// ============================================================================

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/mozc-loader/internal/config"
	"github.com/ChuLiYu/mozc-loader/internal/dataloader"
	"github.com/ChuLiYu/mozc-loader/internal/metrics"
	"github.com/ChuLiYu/mozc-loader/internal/parser"
	"github.com/ChuLiYu/mozc-loader/pkg/types"
)

var log = slog.Default()

// manifestEntry is one request in a YAML manifest file consumed by `run`.
type manifestEntry struct {
	EngineType      string            `yaml:"engine_type"`
	FilePath        string            `yaml:"file_path"`
	InstallLocation string            `yaml:"install_location"`
	MagicNumber     string            `yaml:"magic_number"`
	Priority        int32             `yaml:"priority"`
	Extra           map[string]string `yaml:"extra"`
}

func (e manifestEntry) toRequest() types.Request {
	engineType := types.EngineTypeDesktop
	if e.EngineType == "MOBILE" {
		engineType = types.EngineTypeMobile
	}
	return types.Request{
		EngineType:      engineType,
		FilePath:        e.FilePath,
		InstallLocation: e.InstallLocation,
		MagicNumber:     e.MagicNumber,
		Priority:        e.Priority,
		Extra:           e.Extra,
	}
}

// BuildCLI assembles the dataloaderctl command tree.
func BuildCLI() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:     "dataloaderctl",
		Short:   "Exercise a data package loader from the command line",
		Version: "0.1.0",
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")

	rootCmd.AddCommand(buildRunCommand(&configFile))
	rootCmd.AddCommand(buildServeCommand(&configFile))
	rootCmd.AddCommand(buildStatusCommand(&configFile))

	return rootCmd
}

func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildRunCommand(configFile *string) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register every request in a manifest and build the current top",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(*configFile, manifestPath)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to a YAML request manifest")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runManifest(configFile, manifestPath string) error {
	cfg, err := loadConfigOrDefault(configFile)
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("cli: read manifest: %w", err)
	}

	var entries []manifestEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("cli: parse manifest: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
	}

	dl := dataloader.New(parser.NewMockParser())

	var top uint64
	for _, e := range entries {
		req := e.toRequest()
		if req.InstallLocation != "" && !filepath.IsAbs(req.InstallLocation) {
			req.InstallLocation = filepath.Join(cfg.Loader.InstallDir, req.InstallLocation)
		}
		top = dl.RegisterRequest(req)
		if collector != nil {
			collector.RecordRegistration()
		}
	}

	if top == 0 {
		fmt.Println("no eligible request after processing manifest")
		return nil
	}

	start := time.Now()
	future := dl.Build(top)
	future.Wait()
	resp := future.Get()

	if collector != nil {
		collector.RecordBuild(resp.Status.String(), time.Since(start).Seconds())
	}

	fmt.Printf("built id=%d status=%s file=%s\n", resp.ID, resp.Status, resp.Request.FilePath)
	if resp.Status == types.StatusReloadReady {
		fmt.Printf("  data_version=%s\n", resp.Modules.GetDataManager().GetDataVersion())
	}

	return nil
}

func buildServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Prometheus metrics endpoint and block for a shutdown signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveMetrics(*configFile)
		},
	}
}

func serveMetrics(configFile string) error {
	cfg, err := loadConfigOrDefault(configFile)
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}

	if !cfg.Metrics.Enabled {
		log.Info("metrics disabled by config; nothing to serve")
		return nil
	}

	metrics.NewCollector()

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics server starting", "port", cfg.Metrics.Port)
		errCh <- metrics.StartServer(cfg.Metrics.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("cli: metrics server: %w", err)
	case <-sigCh:
		log.Info("shutdown signal received")
		return nil
	}
}

func buildStatusCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(*configFile)
			if err != nil {
				return fmt.Errorf("cli: %w", err)
			}
			fmt.Printf("install_dir: %s\n", cfg.Loader.InstallDir)
			fmt.Printf("metrics:     enabled=%t port=%d\n", cfg.Metrics.Enabled, cfg.Metrics.Port)
			fmt.Printf("log level:   %s\n", cfg.Log.Level)
			return nil
		},
	}
}
