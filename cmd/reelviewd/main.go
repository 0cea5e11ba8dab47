package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vmunix/reelview/internal/config"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: discovered)")
	envFile := flag.String("env-file", ".env", "Load environment variables from this file if it exists")
	seedPath := flag.String("seed", "", "Import movies from a JSON file before serving")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reelviewd %s\n", version)
		os.Exit(0)
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.Discover(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n(run 'reelview config init' to create one)\n", err)
			os.Exit(1)
		}
	}

	if err := runServer(path, *seedPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
