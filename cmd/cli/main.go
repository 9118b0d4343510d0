package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/fieldops/fieldlog/internal/buildinfo"
	"github.com/fieldops/fieldlog/internal/client/cli"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	server := flag.String("s", "http://localhost:8080", "fieldlog server base URL")
	yes := flag.Bool("yes", false, "confirm destructive operations")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: fieldlogctl [-s server] [-yes] status|scan|cleanup")
	}

	app := cli.NewApp(*server, os.Stdout)
	if err := app.Run(context.Background(), flag.Arg(0), *yes); err != nil {
		log.Fatalf("%v", err)
	}
}
