// vpic queries the NHTSA vPIC vehicle API from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/Adda-Baaj/vpic-harvester/internal/config"
	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.InitWriter(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	rootCmd := newRootCmd(cfg, log, os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}
