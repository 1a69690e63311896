package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daemonp/dmp2mqtt/internal/panel"
	"github.com/daemonp/dmp2mqtt/internal/util"
)

var (
	armBypass  bool
	armForce   bool
	armInstant bool
)

// withPanel connects, runs fn and always disconnects. One-shot
// commands share the bridge configuration file.
func withPanel(fn func(ctx context.Context, p *panel.Panel) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	p := panel.NewPanel(cfg, logger)
	ctx := context.Background()
	if err := p.Connect(ctx); err != nil {
		return err
	}
	defer p.Disconnect()
	return fn(ctx, p)
}

func parseAreas(args []string) ([]int, error) {
	areas := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid area number %q", arg)
		}
		areas = append(areas, n)
	}
	return areas, nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print area and zone status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			if err := p.RefreshStatus(ctx); err != nil {
				return err
			}
			if jsonOut {
				for _, area := range p.GetAreas() {
					if err := emitJSON(area); err != nil {
						return err
					}
				}
				for _, zone := range p.GetZones() {
					if err := emitJSON(zone); err != nil {
						return err
					}
				}
				return nil
			}
			for _, area := range p.GetAreas() {
				fmt.Printf("Area %d %-20s %s\n", area.Number, area.Name, area.Status)
			}
			for _, zone := range p.GetZones() {
				fmt.Printf("Zone %3d %-20s %s\n", zone.Number, zone.Name, zone.Status)
			}
			return nil
		})
	},
}

var armCmd = &cobra.Command{
	Use:   "arm <area> [area...]",
	Short: "Arm one or more areas",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		areas, err := parseAreas(args)
		if err != nil {
			return err
		}
		opts := panel.ArmOptions{
			BypassFaulted: armBypass,
			ForceArm:      armForce,
		}
		if armInstant {
			instant := true
			opts.Instant = &instant
		}
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			return p.Arm(ctx, areas, opts)
		})
	},
}

var disarmCmd = &cobra.Command{
	Use:   "disarm <area> [area...]",
	Short: "Disarm one or more areas",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		areas, err := parseAreas(args)
		if err != nil {
			return err
		}
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			return p.Disarm(ctx, areas)
		})
	},
}

var bypassCmd = &cobra.Command{
	Use:   "bypass <zone>",
	Short: "Bypass a zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid zone number %q", args[0])
		}
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			return p.BypassZone(ctx, zone)
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <zone>",
	Short: "Restore a bypassed zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid zone number %q", args[0])
		}
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			return p.RestoreZone(ctx, zone)
		})
	},
}

var outputActions = []string{"on", "off", "pulse"}

var outputCmd = &cobra.Command{
	Use:   "output <number> <on|off|pulse>",
	Short: "Control a panel output",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid output number %q", args[0])
		}
		action := args[1]
		if !util.Contains(outputActions, action) {
			return fmt.Errorf("unknown output action %q, expected %s",
				action, util.JoinWithOr(outputActions))
		}
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			switch action {
			case "on":
				return p.OutputOn(ctx, output)
			case "off":
				return p.OutputOff(ctx, output)
			default:
				return p.OutputPulse(ctx, output)
			}
		})
	},
}

var sensorResetCmd = &cobra.Command{
	Use:   "sensor-reset",
	Short: "Reset latched sensors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			return p.SensorReset(ctx)
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			users, err := p.UserCodes(ctx)
			if err != nil {
				return err
			}
			for _, u := range users {
				if jsonOut {
					if err := emitJSON(u); err != nil {
						return err
					}
					continue
				}
				fmt.Printf("User %s %-20s code=%s pin=%s\n", u.Number, u.Name, u.Code, u.PIN)
			}
			return nil
		})
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List user profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(func(ctx context.Context, p *panel.Panel) error {
			profiles, err := p.UserProfiles(ctx)
			if err != nil {
				return err
			}
			for _, pr := range profiles {
				if jsonOut {
					if err := emitJSON(pr); err != nil {
						return err
					}
					continue
				}
				fmt.Printf("Profile %s %-20s areas=%s access=%s\n",
					pr.Number, pr.Name, pr.AreasMask, pr.AccessMask)
			}
			return nil
		})
	},
}

func init() {
	armCmd.Flags().BoolVar(&armBypass, "bypass", false, "Bypass faulted zones")
	armCmd.Flags().BoolVar(&armForce, "force", false, "Force arm faulted zones")
	armCmd.Flags().BoolVar(&armInstant, "instant", false, "Arm with no entry delay")

	rootCmd.AddCommand(statusCmd, armCmd, disarmCmd, bypassCmd, restoreCmd,
		outputCmd, sensorResetCmd, usersCmd, profilesCmd)
}
