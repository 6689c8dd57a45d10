// Package configcmder provides the config command for managing persistent
// etch configuration stored in the .etch/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent etch configuration.

Configuration is stored as config.toml in the .etch/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  insert.default_importance, insert.memory_type,
  insert.max_content_chars, insert.engine_plugin,
  summary.primary_separator, summary.secondary_separator, summary.max_facts,
  extract.provider, extract.model, extract.target, extract.timeout_seconds,
  mcp.listen, dev.sqlite_path

Use subcommands to get, set, or list configuration values:
  etch config set <key> <value>    Set a configuration value
  etch config get <key>            Get a configuration value
  etch config list                 List all configuration values

Examples:
  etch config set insert.default_importance 0.9
  etch config set extract.provider anthropic
  etch config get mcp.listen
  etch config list`

const configShortDesc string = "Manage persistent etch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
