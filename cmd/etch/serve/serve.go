// Package servecmder provides the serve command for running the etch MCP
// server.
package servecmder

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	mcpapi "github.com/inkmem/etch/api/mcp"
	"github.com/inkmem/etch/pkg/config"
	"github.com/inkmem/etch/pkg/extract"
	"github.com/inkmem/etch/pkg/guard"
	"github.com/inkmem/etch/pkg/host"
	"github.com/inkmem/etch/pkg/inject"
	"github.com/inkmem/etch/pkg/locate"
	"github.com/inkmem/etch/pkg/logger"
	"github.com/inkmem/etch/pkg/recall"
	"github.com/inkmem/etch/pkg/recall/sqlite"
	"github.com/inkmem/etch/pkg/record"
)

type ServeCommander struct {
	listen          string
	sqlitePath      string
	enginePlugin    string
	extractProvider string
	extractModel    string
	extractTarget   string
	dev             bool
	debug           bool

	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the etch MCP server.

Exposes the memory_etch and memory_put tools over streamable HTTP at /mcp
so a chat surface can insert memories on the user's behalf.

In production the recall plugin runs in the same host process and etch
discovers its engine through the plugin registry. With --dev, a reference
recall engine backed by SQLite is mounted so the server is usable
standalone.

Examples:
  etch serve --dev
  etch serve --listen :9000 --dev
  etch serve --extract-provider anthropic --dev`

const serveShortDesc string = "Run the etch MCP server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			fs := config.DefaultFlagSet()
			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagMCPListen,
				config.FlagDevSQLite,
				config.FlagEnginePlugin,
				config.FlagExtractProvider,
				config.FlagExtractModel,
				config.FlagExtractTarget,
			})

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagMCPListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagDevSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagEnginePlugin, &cmder.enginePlugin)
	config.AddStringFlag(cmd, fs, config.FlagExtractProvider, &cmder.extractProvider)
	config.AddStringFlag(cmd, fs, config.FlagExtractModel, &cmder.extractModel)
	config.AddStringFlag(cmd, fs, config.FlagExtractTarget, &cmder.extractTarget)

	cmd.Flags().BoolVar(&cmder.dev, "dev", false, "Mount a reference recall engine backed by SQLite")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := c.cfg

	registry := host.NewRegistry()

	// In dev mode mount the reference engine; otherwise the registry
	// starts empty and insertion fails until the recall plugin registers.
	if c.dev {
		eng, err := sqlite.NewEngine(cfg.Dev.SQLitePath, c.logger)
		if err != nil {
			return fmt.Errorf("opening recall database: %w", err)
		}
		defer func() { _ = eng.Close() }()

		if err := registry.Register(recall.NewPlugin(eng)); err != nil {
			return fmt.Errorf("registering recall plugin: %w", err)
		}

		c.logger.Info("mounted reference recall engine",
			zap.String("sqlite_path", cfg.Dev.SQLitePath),
		)
	}

	call, err := extract.NewCaller(extract.CallerConfig{
		Provider: cfg.Extract.Provider,
		Model:    cfg.Extract.Model,
		BaseURL:  cfg.Extract.Target,
	})
	if err != nil {
		return fmt.Errorf("creating extraction caller: %w", err)
	}

	extractor := extract.New(call, time.Duration(cfg.Extract.TimeoutSeconds)*time.Second, c.logger)

	assembler, err := record.NewAssembler(record.Config{
		DefaultImportance:  cfg.Insert.DefaultImportance,
		DefaultMemoryType:  cfg.Insert.MemoryType,
		PrimarySeparator:   cfg.Summary.PrimarySeparator,
		SecondarySeparator: cfg.Summary.SecondarySeparator,
		MaxSummaryFacts:    cfg.Summary.MaxFacts,
	})
	if err != nil {
		return fmt.Errorf("creating assembler: %w", err)
	}

	locator := locate.New(registry, cfg.Insert.EnginePlugin, c.logger)
	g := guard.New(c.logger)

	inserter := inject.New(locator, g, extractor, assembler,
		inject.Config{MaxContentChars: cfg.Insert.MaxContentChars}, c.logger)

	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Inserter: inserter,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpServer.Handler())

	httpServer := &http.Server{
		Addr:              cfg.MCP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.logger.Info("starting MCP server",
		zap.String("listen", cfg.MCP.Listen),
		zap.String("engine_plugin", cfg.Insert.EnginePlugin),
		zap.Bool("dev", c.dev),
	)

	errChan := make(chan error, 1)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return httpServer.Close()
	}
}
