package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/winstated/internal/ipc"
)

func parseQueryFlags(name, usage string, args []string) (*ipc.Client, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Daemon IPC socket path (default: runtime dir)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: winstated %s [--socket PATH]\n\n%s\n", name, usage)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, 0
		}
		return nil, 2
	}
	return ipc.NewClient(*socket), -1
}

func runStatus(args []string) int {
	client, rc := parseQueryFlags("status", "Show daemon status via IPC.", args)
	if client == nil {
		return rc
	}

	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Daemon running: %v\n", status.DaemonRunning)
	fmt.Printf("Applications:   %d\n", status.ApplicationCount)
	fmt.Printf("Windows:        %d\n", status.WindowCount)
	fmt.Printf("Events dropped: %d\n", status.EventsDropped)
	fmt.Printf("Uptime:         %ds\n", status.UptimeSeconds)
	return 0
}

func runWindows(args []string) int {
	client, rc := parseQueryFlags("windows", "List tracked windows via IPC.", args)
	if client == nil {
		return rc
	}

	data, err := client.ListWindows()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if len(data.Windows) == 0 {
		fmt.Println("No tracked windows.")
		return 0
	}

	if stdoutIsTTY() {
		fmt.Printf("%-12s %-8s %-20s %s\n", "ID", "PID", "APP", "TITLE")
		for _, w := range data.Windows {
			fmt.Printf("%-12d %-8d %-20s %s\n", w.ID, w.PID, w.App, w.Title)
		}
	} else {
		for _, w := range data.Windows {
			fmt.Printf("%d\t%d\t%s\t%s\n", w.ID, w.PID, w.App, w.Title)
		}
	}
	return 0
}

func runApps(args []string) int {
	client, rc := parseQueryFlags("apps", "List tracked applications via IPC.", args)
	if client == nil {
		return rc
	}

	data, err := client.ListApplications()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if len(data.Applications) == 0 {
		fmt.Println("No tracked applications.")
		return 0
	}

	if stdoutIsTTY() {
		fmt.Printf("%-8s %-24s %s\n", "PID", "NAME", "WINDOWS")
		for _, app := range data.Applications {
			fmt.Printf("%-8d %-24s %d\n", app.PID, app.Name, app.WindowCount)
		}
	} else {
		for _, app := range data.Applications {
			fmt.Printf("%d\t%s\t%d\n", app.PID, app.Name, app.WindowCount)
		}
	}
	return 0
}

func runRefresh(args []string) int {
	client, rc := parseQueryFlags("refresh", "Force an immediate registry resync via IPC.", args)
	if client == nil {
		return rc
	}

	data, err := client.Refresh()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Resync complete: %d windows tracked\n", data.WindowCount)
	return 0
}
