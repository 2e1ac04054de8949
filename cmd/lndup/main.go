package main

import (
	"fmt"
	"os"

	"github.com/autobrr/lndup/cmd"
)

func main() {
	rootCmd := cmd.RootCommand()

	rootCmd.AddCommand(cmd.HasherCommand())
	rootCmd.AddCommand(cmd.VersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
