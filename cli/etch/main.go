package main

import (
	"os"

	etchcmder "github.com/inkmem/etch/cmd/etch"
)

func main() {
	cmd := etchcmder.NewEtchCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
