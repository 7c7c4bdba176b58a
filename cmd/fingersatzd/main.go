package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"fingersatz/internal/config"
	"fingersatz/internal/daemonrun"
)

func main() {
	// .env values feed the config env fallbacks, so load before config.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
