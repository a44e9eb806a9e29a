package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/modscope/modscope/internal/config"
)

func main() {
	if os.Getenv("MODSCOPE_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	root := NewRootCommand(cfg)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
