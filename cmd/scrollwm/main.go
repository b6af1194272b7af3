// Command scrollwm is the control CLI: a thin IPC client for the daemon
// plus local helpers (init, autostart, run).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scrollwm/scrollwm/internal/ipc"
)

var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "scrollwm",
		Short:         "Control the scrollwm daemon",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Commands that take no arguments map 1:1 onto IPC names.
	simple := []struct {
		use string
		cmd string
	}{
		{"focus-left", ipc.CmdFocusLeft},
		{"focus-right", ipc.CmdFocusRight},
		{"focus-up", ipc.CmdFocusUp},
		{"focus-down", ipc.CmdFocusDown},
		{"move-column-left", ipc.CmdMoveColumnLeft},
		{"move-column-right", ipc.CmdMoveColumnRight},
		{"focus-monitor-left", ipc.CmdFocusMonitorLeft},
		{"focus-monitor-right", ipc.CmdFocusMonitorRight},
		{"move-window-to-monitor-left", ipc.CmdMoveWindowToMonitorLeft},
		{"move-window-to-monitor-right", ipc.CmdMoveWindowToMonitorRight},
		{"close-window", ipc.CmdCloseWindow},
		{"toggle-floating", ipc.CmdToggleFloating},
		{"toggle-fullscreen", ipc.CmdToggleFullscreen},
		{"refresh", ipc.CmdRefresh},
		{"apply", ipc.CmdApply},
		{"reload", ipc.CmdReload},
		{"pause", ipc.CmdPause},
		{"resume", ipc.CmdResume},
		{"stop", ipc.CmdStop},
	}
	for _, s := range simple {
		cmdName := s.cmd
		root.AddCommand(&cobra.Command{
			Use:   s.use,
			Short: "Send " + cmdName + " to the daemon",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return sendExpectOK(ipc.Request{Cmd: cmdName})
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "scroll <delta-px>",
		Short: "Pan the focused monitor's strip by a pixel delta",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[0])
			}
			return sendExpectOK(ipc.Request{Cmd: ipc.CmdScroll, Delta: delta})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "resize <delta-px>",
		Short: "Resize the focused column by a pixel delta",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[0])
			}
			return sendExpectOK(ipc.Request{Cmd: ipc.CmdResize, Delta: delta})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:       "set-column-width <one_third|half|two_thirds|equalize>",
		Short:     "Set the focused column width to a work-area fraction",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{ipc.WidthOneThird, ipc.WidthHalf, ipc.WidthTwoThirds, ipc.WidthEqualize},
		RunE: func(_ *cobra.Command, args []string) error {
			return sendExpectOK(ipc.Request{Cmd: ipc.CmdSetColumnWidth, Width: args[0]})
		},
	})

	queries := []struct {
		use string
		cmd string
	}{
		{"query-workspace", ipc.CmdQueryWorkspace},
		{"query-focused", ipc.CmdQueryFocused},
		{"query-all-windows", ipc.CmdQueryAllWindows},
		{"query-status", ipc.CmdQueryStatus},
	}
	for _, q := range queries {
		cmdName := q.cmd
		root.AddCommand(&cobra.Command{
			Use:   q.use,
			Short: "Query the daemon and print the JSON response",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return sendPrintJSON(ipc.Request{Cmd: cmdName})
			},
		})
	}

	root.AddCommand(statusCommand())
	root.AddCommand(initCommand())
	root.AddCommand(autostartCommand())
	root.AddCommand(runCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func send(req ipc.Request) (ipc.Response, error) {
	return ipc.NewClient(ipc.DefaultEndpoint, 0).Send(req)
}

func sendExpectOK(req ipc.Request) error {
	resp, err := send(req)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	fmt.Println("ok")
	return nil
}

func sendPrintJSON(req ipc.Request) error {
	resp, err := send(req)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a human-readable daemon status",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			resp, err := send(ipc.Request{Cmd: ipc.CmdQueryStatus})
			if err != nil {
				return err
			}
			if resp.Error != "" {
				return fmt.Errorf("%s", resp.Error)
			}
			s := resp.Status
			fmt.Printf("scrollwm %s\n", s.Version)
			fmt.Printf("  uptime:   %ds\n", s.UptimeSeconds)
			fmt.Printf("  windows:  %d\n", s.ManagedWindows)
			fmt.Printf("  monitors: %d\n", s.MonitorCount)
			fmt.Printf("  paused:   %v\n", s.Paused)
			return nil
		},
	}
}
