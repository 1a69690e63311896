package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daemonp/dmp2mqtt/internal/config"
	"github.com/daemonp/dmp2mqtt/internal/log"
)

var (
	configFile string
	debug      bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "dmp2mqtt",
	Short: "DMP alarm panel to MQTT bridge",
	Long: `dmp2mqtt bridges a DMP alarm panel to MQTT.

The run command connects to the panel, mirrors area and zone state to
retained MQTT topics and accepts arm, disarm, bypass and output
commands back over MQTT. The remaining commands talk to the panel
directly for one-shot operations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Force debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Emit NDJSON instead of plain text")
}

// emitJSON writes one NDJSON line to stdout.
func emitJSON(v interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration file and builds the logger.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %v", err)
	}
	if debug {
		cfg.Log = "debug"
	}
	return cfg, log.NewLogger(cfg.Log), nil
}
