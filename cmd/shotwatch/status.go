package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/shotwatch/internal/dbus"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output daemon status in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/screenshots": {
    "exec": "shotwatch status",
    "interval": 5,
    "return-type": "json",
    "on-click": "shotwatch toggle"
  }

The output includes:
  - text: Number of screenshots this session
  - alt/class: Popover state (visible, hidden, absent, headless) or stopped
  - tooltip: Watched directory and backend`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := dbus.Connect()
	if err != nil {
		return outputStatus(stoppedStatus())
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	st, err := client.Status(ctx)
	if err != nil {
		if !errors.Is(err, dbus.ErrNotRunning) {
			logger.Warn("failed to query daemon status", "error", err)
		}
		return outputStatus(stoppedStatus())
	}
	return outputStatus(generateStatus(st))
}

// generateStatus creates a WaybarStatus from the daemon status.
func generateStatus(st dbus.Status) WaybarStatus {
	text := ""
	if st.Count > 0 {
		text = fmt.Sprintf("%d", st.Count)
	}

	tooltip := fmt.Sprintf("Watching %s", st.Root)
	switch st.Mode {
	case "":
	case dbus.ModeDisabled:
		tooltip = fmt.Sprintf("Cannot watch %s", st.Root)
	default:
		tooltip += fmt.Sprintf(" (%s)", st.Mode)
	}
	switch st.Count {
	case 0:
		tooltip += "\nNo screenshots yet"
	case 1:
		tooltip += "\n1 screenshot"
	default:
		tooltip += fmt.Sprintf("\n%d screenshots", st.Count)
	}

	return WaybarStatus{
		Text:    text,
		Alt:     st.State,
		Tooltip: tooltip,
		Class:   st.State,
	}
}

func stoppedStatus() WaybarStatus {
	return WaybarStatus{
		Text:    "",
		Alt:     "stopped",
		Tooltip: "shotwatchd is not running",
		Class:   "stopped",
	}
}

// outputStatus writes the status as JSON.
func outputStatus(status WaybarStatus) error {
	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(status)
}
