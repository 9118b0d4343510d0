package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/server"
)

func main() {

	// .env is optional, a missing file is not an error
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
