package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/app"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/constants"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/log"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/source"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: only 'yaml' is supported")
	evalFile := flag.String("eval", "", "Evaluate a JSON series file, print the result and exit")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("airguard %s\n", constants.Version)
		os.Exit(0)
	}

	if *evalFile != "" {
		if err := evaluateFile(*evalFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

// evaluateFile runs one offline evaluation of a series file
func evaluateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := source.Unwrap(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	out, err := json.MarshalIndent(airquality.Evaluate(raw), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
