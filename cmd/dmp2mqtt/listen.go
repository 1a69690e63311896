package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daemonp/dmp2mqtt/internal/dmp"
	"github.com/daemonp/dmp2mqtt/internal/messages"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the realtime listener and print incoming events",
	Long: `Accept inbound panel connections and print each classified event.

Useful for verifying the panel's realtime destination without running
the full MQTT bridge.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	server := dmp.NewServer(dmp.ServerConfig{
		Host: cfg.Listen.Host,
		Port: cfg.Listen.Port,
	}, messages.System(), logger)

	server.Register(func(event dmp.Event) {
		if jsonOut {
			if err := emitJSON(event); err != nil {
				logger.Warning("Listener: %v", err)
			}
			return
		}
		line := fmt.Sprintf("[%s] %s %s", event.Account, event.Category, event.TypeCode)
		if desc := event.TypeDescription(); desc != "" {
			line += " " + desc
		}
		if event.Zone != "" {
			line += fmt.Sprintf(" zone=%s(%s)", event.Zone, event.ZoneName)
		}
		if event.Area != "" {
			line += fmt.Sprintf(" area=%s(%s)", event.Area, event.AreaName)
		}
		if event.User != "" {
			line += fmt.Sprintf(" user=%s(%s)", event.User, event.UserName)
		}
		if event.SystemText != "" {
			line += " " + event.SystemText
		}
		fmt.Println(line)
	})
	server.OnError(func(err error) {
		logger.Warning("Listener: %v", err)
	})

	if err := server.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	server.Stop()
	return nil
}
