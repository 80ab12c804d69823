// cmd/tomboy/main.go
package main

import (
	"fmt"
	"os"

	"github.com/bethropolis/tomboy/internal/commands"
)

// Version is set at build time.
var Version = "dev"

func main() {
	rootCmd := commands.NewRootCmd()
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tomboy:", err)
		os.Exit(1)
	}
}
