// cmd/shipdeck/main.go
//
// This is the entry point for the shipdeck CLI.
// Run `shipdeck SHIPMENT-NAME` from a project directory that holds a
// .shipdeck folder and the shipment documents.
//
// Flow:
// 1. Initialize the .shipdeck folder (config + logs) if needed
// 2. Load the named shipment
// 3. Launch the TUI

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fruttersoft/shipdeck/internal/config"
	"github.com/fruttersoft/shipdeck/internal/tui"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s SHIPMENT-NAME\n", os.Args[0])
		os.Exit(2)
	}
	shipmentName := os.Args[1]

	// The current working directory is the project we're working in.
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitShipdeckDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .shipdeck directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cwd, shipmentName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading shipment %q: %v\n", shipmentName, err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
