// Package addcmder provides the add command for inserting a free-text memory
// into the recall engine, extracting structured fields via LLM.
package addcmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/cliui"
	"github.com/inkmem/etch/pkg/command"
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

type addCommander struct {
	sessionID       string
	personaID       string
	sqlitePath      string
	extractProvider string
	extractModel    string
	extractTarget   string
	debug           bool

	cfg    *config.Config
	logger *zap.Logger
}

const addLongDesc string = `Insert a free-text memory into the recall memory store.

The memory text goes between angle brackets. Topics, key facts, and
sentiment are extracted with an LLM call; if no provider is reachable
the memory is still inserted with neutral defaults.

An optional importance (0 to 1) and memory type may follow the closing
bracket.

The CLI inserts into the reference recall database under .etch/. Use
"etch serve" to insert through a chat surface instead.

Examples:
  etch add "<the user prefers dark roast coffee>"
  etch add "<the user ships on Fridays> 0.9"
  etch add "<the user is allergic to shellfish> 0.95 fact"`

const addShortDesc string = "Insert a free-text memory"

func NewAddCmd() *cobra.Command {
	cmder := &addCommander{}

	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "add \"<text> [importance] [type]\"",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			fs := config.DefaultFlagSet()
			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagDevSQLite,
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
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(strings.Join(args, " "))
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagDevSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagExtractProvider, &cmder.extractProvider)
	config.AddStringFlag(cmd, fs, config.FlagExtractModel, &cmder.extractModel)
	config.AddStringFlag(cmd, fs, config.FlagExtractTarget, &cmder.extractTarget)

	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "cli:local", "Session identifier recorded with the memory")
	cmd.Flags().StringVarP(&cmder.personaID, "persona", "p", "", "Persona identifier recorded with the memory")

	return cmd
}

func (c *addCommander) run(raw string) error {
	c.logger = logger.New(c.debug)
	defer func() { _ = c.logger.Sync() }()

	addCmd, err := command.ParseAdd(raw)
	if err != nil {
		return err
	}

	inserter, eng, err := buildInserter(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	var report *inject.Report
	err = cliui.Step(os.Stdout, "Inserting memory", func() error {
		report, err = inserter.InsertText(context.Background(), addCmd, c.sessionID, c.personaID)
		return err
	})
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// buildInserter wires the insertion pipeline against the reference recall
// database. The CLI process has no external host, so it mounts the sqlite
// engine itself.
func buildInserter(cfg *config.Config, log *zap.Logger) (*inject.Inserter, *sqlite.Engine, error) {
	eng, err := sqlite.NewEngine(cfg.Dev.SQLitePath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening recall database: %w", err)
	}

	registry := host.NewRegistry()
	if err := registry.Register(recall.NewPlugin(eng)); err != nil {
		_ = eng.Close()
		return nil, nil, fmt.Errorf("registering recall plugin: %w", err)
	}

	call, err := extract.NewCaller(extract.CallerConfig{
		Provider: cfg.Extract.Provider,
		Model:    cfg.Extract.Model,
		BaseURL:  cfg.Extract.Target,
	})
	if err != nil {
		_ = eng.Close()
		return nil, nil, fmt.Errorf("creating extraction caller: %w", err)
	}

	extractor := extract.New(call, time.Duration(cfg.Extract.TimeoutSeconds)*time.Second, log)

	assembler, err := record.NewAssembler(record.Config{
		DefaultImportance:  cfg.Insert.DefaultImportance,
		DefaultMemoryType:  cfg.Insert.MemoryType,
		PrimarySeparator:   cfg.Summary.PrimarySeparator,
		SecondarySeparator: cfg.Summary.SecondarySeparator,
		MaxSummaryFacts:    cfg.Summary.MaxFacts,
	})
	if err != nil {
		_ = eng.Close()
		return nil, nil, fmt.Errorf("creating assembler: %w", err)
	}

	locator := locate.New(registry, cfg.Insert.EnginePlugin, log)
	g := guard.New(log)

	inserter := inject.New(locator, g, extractor, assembler,
		inject.Config{MaxContentChars: cfg.Insert.MaxContentChars}, log)

	return inserter, eng, nil
}

func printReport(report *inject.Report) {
	fmt.Println()
	cliui.KV(os.Stdout, "ID", report.ID)
	cliui.KV(os.Stdout, "Importance", fmt.Sprintf("%g", report.Importance))
	if len(report.Topics) > 0 {
		cliui.KV(os.Stdout, "Topics", strings.Join(report.Topics, ", "))
	}
	cliui.KV(os.Stdout, "Sentiment", report.Sentiment)
	cliui.KV(os.Stdout, "Preview", report.Preview())
	fmt.Println()
}
