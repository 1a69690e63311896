package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daemonp/dmp2mqtt/internal/cache"
	"github.com/daemonp/dmp2mqtt/internal/homeassistant"
	"github.com/daemonp/dmp2mqtt/internal/mqtt"
	"github.com/daemonp/dmp2mqtt/internal/panel"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the panel to MQTT bridge",
	RunE:  runBridge,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	p := panel.NewPanel(cfg, logger)
	mqttClient := mqtt.NewMQTT(&cfg.MQTT, p, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx := context.Background()
	if err := p.Connect(ctx); err != nil {
		return err
	}

	if cfg.Cache {
		cacheData, err := cache.LoadCache()
		if err != nil {
			logger.Warning("Failed to load cache: %v", err)
		} else if cacheData != nil {
			p.SetCachedData(cacheData)
			logger.Info("Loaded data from cache")
		}
	}

	if err := p.Start(ctx); err != nil {
		p.Disconnect()
		return err
	}

	if cfg.Cache {
		if err := cache.SaveCache(p); err != nil {
			logger.Warning("Failed to save cache: %v", err)
		} else {
			logger.Info("Saved data to cache")
		}
	}

	if err := mqttClient.Connect(); err != nil {
		p.Disconnect()
		return err
	}

	if cfg.HomeAssistant.Discovery {
		ha := homeassistant.New(&cfg.HomeAssistant, mqttClient, p, logger)
		ha.Start()
	}

	<-sigChan

	logger.Info("Shutting down...")
	mqttClient.Close()
	p.Disconnect()

	if cfg.Cache {
		if err := cache.DeleteCache(); err != nil {
			logger.Warning("Failed to delete cache: %v", err)
		}
	}
	return nil
}
