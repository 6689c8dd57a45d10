// Package etchcmder
package etchcmder

import (
	addcmder "github.com/inkmem/etch/cmd/etch/add"
	configcmder "github.com/inkmem/etch/cmd/etch/config"
	initcmder "github.com/inkmem/etch/cmd/etch/init"
	putcmder "github.com/inkmem/etch/cmd/etch/put"
	servecmder "github.com/inkmem/etch/cmd/etch/serve"
	versioncmder "github.com/inkmem/etch/cmd/version"
	"github.com/spf13/cobra"
)

const etchLongDesc string = `Etch manually inserts memories into the recall memory engine.

Insert memories using:
  etch add "<text> [importance] [type]"   Insert free text, extracting fields via LLM
  etch put '<json payload>'               Insert a fully-specified JSON payload
  etch serve                              Run the MCP server for chat-surface insertion`

const etchShortDesc string = "Etch - Manual memory insertion for recall"

func NewEtchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "etch",
		Short: etchShortDesc,
		Long:  etchLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .etch/ config directory")

	// Add subcommands
	cmd.AddCommand(addcmder.NewAddCmd())
	cmd.AddCommand(putcmder.NewPutCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
