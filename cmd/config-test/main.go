package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
)

func main() {
	yamlFile := flag.String("yaml", "", "Path to YAML configuration file")
	flag.Parse()

	if *yamlFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Test")
	fmt.Println("==================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	provider := config.NewYAMLProvider(*yamlFile)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Configuration is valid")

	printSource(cfg.Source)

	fmt.Println("\nCache:")
	fmt.Printf("  size: %d\n", cfg.Cache.Size)
	if cfg.Cache.Path != "" {
		fmt.Printf("  path: %s\n", cfg.Cache.Path)
	} else {
		fmt.Println("  path: (memory only)")
	}

	fmt.Printf("\nRefresh interval: %v\n", cfg.RefreshInterval)

	fmt.Printf("\nControllers: %d\n", len(cfg.Controllers))
	for _, c := range cfg.Controllers {
		switch c.Type {
		case config.ControllerREST:
			fmt.Printf("  rest  %s:%d", c.RESTServer.ListenAddr, c.RESTServer.HTTPPort)
			if c.RESTServer.TLSCertPath != "" {
				fmt.Print(" (TLS)")
			}
			fmt.Println()
		case config.ControllerMQTT:
			fmt.Printf("  mqtt  %s topic=%s qos=%d\n", c.MQTT.Broker, c.MQTT.Topic, c.MQTT.QoS)
		}
	}
}

func printSource(s config.SourceData) {
	fmt.Println("\nSource:")
	fmt.Printf("  type:  %s\n", s.Type)
	fmt.Printf("  range: %v  step: %v\n", s.Range, s.Step)

	switch s.Type {
	case config.SourcePrometheus:
		fmt.Printf("  url:   %s (timeout %v)\n", s.Prometheus.URL, s.Prometheus.Timeout)
		names := make([]string, 0, len(s.Prometheus.Queries))
		for name := range s.Prometheus.Queries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("    %-6s %s\n", name, s.Prometheus.Queries[name])
		}
	case config.SourceFile:
		fmt.Printf("  path:  %s\n", s.File.Path)
	case config.SourceAirGradient:
		fmt.Printf("  device: %s:%s every %v\n", s.AirGradient.Hostname, s.AirGradient.Port, s.AirGradient.PollInterval)
	}
}
