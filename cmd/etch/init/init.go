// Package initcmder provides the init command for initializing a local .etch
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	dirName = ".etch"
)

const initLongDesc string = `Initialize a new .etch/ directory in the current working directory.

Creates a local .etch/ directory that takes precedence over the default
~/.etch/ directory for configuration and the reference recall database.

This is useful for maintaining separate etch state per project or directory.

Examples:
  etch init`

const initShortDesc string = "Initialize a local .etch/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .etch directory: %w", err)
	}

	fmt.Printf("Initialized .etch directory: %s\n", dir)
	return nil
}
