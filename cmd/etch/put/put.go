// Package putcmder provides the put command for inserting a fully-specified
// JSON memory payload into the recall engine, bypassing the LLM.
package putcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/cliui"
	"github.com/inkmem/etch/pkg/command"
	"github.com/inkmem/etch/pkg/config"
	"github.com/inkmem/etch/pkg/guard"
	"github.com/inkmem/etch/pkg/host"
	"github.com/inkmem/etch/pkg/inject"
	"github.com/inkmem/etch/pkg/locate"
	"github.com/inkmem/etch/pkg/logger"
	"github.com/inkmem/etch/pkg/recall"
	"github.com/inkmem/etch/pkg/recall/sqlite"
	"github.com/inkmem/etch/pkg/record"
)

type putCommander struct {
	sessionID  string
	personaID  string
	sqlitePath string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
}

const putLongDesc string = `Insert a fully-specified JSON memory payload into the recall memory store.

The JSON object goes between angle brackets and must contain text, topics,
key_facts, and sentiment. Optional fields: importance (0 to 1) and
memory_type. No LLM call is made.

The CLI inserts into the reference recall database under .etch/. Use
"etch serve" to insert through a chat surface instead.

Examples:
  etch put '<{"text":"the user ships on Fridays","topics":["work"],"key_facts":["ships on Fridays"],"sentiment":"neutral"}>'
  etch put '<{"text":"the user loves sushi","topics":["food"],"key_facts":[],"sentiment":"positive","importance":0.9}>'`

const putShortDesc string = "Insert a JSON memory payload"

func NewPutCmd() *cobra.Command {
	cmder := &putCommander{}

	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "put '<json payload>'",
		Short: putShortDesc,
		Long:  putLongDesc,
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

	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "cli:local", "Session identifier recorded with the memory")
	cmd.Flags().StringVarP(&cmder.personaID, "persona", "p", "", "Persona identifier recorded with the memory")

	return cmd
}

func (c *putCommander) run(raw string) error {
	c.logger = logger.New(c.debug)
	defer func() { _ = c.logger.Sync() }()

	payload, err := command.ParsePut(raw)
	if err != nil {
		return err
	}

	inserter, eng, err := c.buildInserter()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	var report *inject.Report
	err = cliui.Step(os.Stdout, "Inserting memory", func() error {
		report, err = inserter.InsertPayload(context.Background(), payload, c.sessionID, c.personaID)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Println()
	cliui.KV(os.Stdout, "ID", report.ID)
	cliui.KV(os.Stdout, "Importance", fmt.Sprintf("%g", report.Importance))
	if len(report.Topics) > 0 {
		cliui.KV(os.Stdout, "Topics", strings.Join(report.Topics, ", "))
	}
	cliui.KV(os.Stdout, "Sentiment", report.Sentiment)
	cliui.KV(os.Stdout, "Preview", report.Preview())
	fmt.Println()

	return nil
}

// buildInserter wires the payload pipeline against the reference recall
// database. The put path never calls an LLM so no extractor is built.
func (c *putCommander) buildInserter() (*inject.Inserter, *sqlite.Engine, error) {
	cfg := c.cfg

	eng, err := sqlite.NewEngine(cfg.Dev.SQLitePath, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening recall database: %w", err)
	}

	registry := host.NewRegistry()
	if err := registry.Register(recall.NewPlugin(eng)); err != nil {
		_ = eng.Close()
		return nil, nil, fmt.Errorf("registering recall plugin: %w", err)
	}

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

	locator := locate.New(registry, cfg.Insert.EnginePlugin, c.logger)
	g := guard.New(c.logger)

	inserter := inject.New(locator, g, nil, assembler,
		inject.Config{MaxContentChars: cfg.Insert.MaxContentChars}, c.logger)

	return inserter, eng, nil
}
