package main

import (
	"context"
	"log"
	"os"

	"kiln/internal/config"
	"kiln/internal/daemonrun"
)

func main() {
	opts, configPath := parseFlags(os.Args[1:])

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
