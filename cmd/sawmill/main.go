package main

import (
	"flag"

	"sawmill/internal/app"
	"sawmill/internal/config"
)

func main() {
	configFile := flag.String("config", "", "optional YAML configuration file")
	envFile := flag.String("env", "", "optional .env file (defaults to ./.env when present)")
	flag.Parse()

	// Run blocks until SIGINT or SIGTERM, then stops every service in
	// reverse start order.
	app.New(config.Files{YAML: *configFile, Env: *envFile}).Run()
}
