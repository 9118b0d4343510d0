package config

import (
	"flag"
	"os"

	"github.com/fieldops/fieldlog/internal/flagx"
)

// parseFlags overlays the small set of command-line flags. Flags win over
// both the environment and the JSON file.
func parseFlags(config *Config) {

	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d"})

	fs := flag.NewFlagSet("options", flag.ContinueOnError)

	addr := fs.String("a", "", "address and port to run server")
	dataDir := fs.String("d", "", "directory for the local fallback store")

	_ = fs.Parse(args)

	if *addr != "" {
		config.Server.Addr = *addr
	}
	if *dataDir != "" {
		config.Local.DataDir = *dataDir
	}
}
