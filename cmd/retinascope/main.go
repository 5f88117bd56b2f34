package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/retinaai/retinascope/cmd/retinascope/app"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	serverURL := flag.String("server", "", "Base URL of the analysis server (default: http://localhost:5000)")
	configFile := flag.String("config", "", "Load settings from a YAML file")
	saveConfig := flag.String("save-config", "", "Save effective settings to a YAML file and exit")
	reportDir := flag.String("report-dir", "", "Directory for generated HTML reports (default: reports)")
	logFile := flag.String("log-file", "", "Write a structured session log to this file")
	timeout := flag.Int("timeout", 0, "Request timeout in seconds (default: 30)")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("retinascope %s\n", version)
		os.Exit(0)
	}

	cfg := app.DefaultConfig()
	if *configFile != "" {
		loaded, err := app.LoadFromYAML(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override the config file.
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *reportDir != "" {
		cfg.ReportsDir = *reportDir
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *timeout > 0 {
		cfg.RequestTimeout = *timeout
	}

	if *saveConfig != "" {
		if err := app.SaveToYAML(cfg, *saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved to %s\n", *saveConfig)
		os.Exit(0)
	}

	if err := app.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
