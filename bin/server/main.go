package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/zond/anatomy/server"
)

func main() {
	config, err := server.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	flag.StringVar(&config.SSHAddr, "ssh", config.SSHAddr, "Where to listen to SSH connections.")
	flag.StringVar(&config.Dir, "dir", config.Dir, "Where to save database, keys and logs.")
	flag.StringVar(&config.SpeciesFile, "species", config.SpeciesFile, "JSON file with additional species.")
	flag.StringVar(&config.DefaultSpecies, "default_species", config.DefaultSpecies, "Species of new bodies.")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv, err := server.New(ctx, config)
	if err != nil {
		log.Fatal(err)
	}
	defer srv.Close()
	defer server.SetupLogging(config).Close()

	if err := srv.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
