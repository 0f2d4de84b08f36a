package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/carlosvega/corpusetl/internal/app"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "Path to pipeline configuration file")
	flag.Parse()

	if configFile == "" {
		if envConfigFile := os.Getenv("CORPUSETL_CONFIG_FILE"); envConfigFile != "" {
			configFile = envConfigFile
		} else {
			configFile = "/etc/corpusetl/pipeline.yaml"
		}
	}

	fmt.Printf("Using configuration file: %s\n", configFile)

	application, err := app.New(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}
