package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganderhq/gander/internal/config"
)

func main() {
	serverFlag := flag.String("server", "", "Base URL of the Gander server (default http://localhost:<port> from config)")
	themeFlag := flag.String("theme", "", "UI theme (cyan, matrix, amber, cyberpunk, ice, dracula, fire)")
	refreshFlag := flag.Duration("refresh", 2*time.Second, "How often to poll the server for status")
	listThemes := flag.Bool("list-themes", false, "List all available themes")
	flag.Parse()

	// If user wants to list themes
	if *listThemes {
		fmt.Println("Available themes:")
		for _, theme := range ListThemes() {
			fmt.Printf("  - %s\n", theme)
		}
		os.Exit(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	serverURL := *serverFlag
	if serverURL == "" {
		serverURL = "http://localhost:" + cfg.Server.Port
	}

	selectedTheme := *themeFlag
	if selectedTheme == "" {
		selectedTheme = os.Getenv("GANDER_THEME")
	}
	if selectedTheme == "" {
		selectedTheme = cfg.Server.Theme
	}
	if selectedTheme == "" {
		selectedTheme = "cyan"
	}

	theme := ThemeName(selectedTheme)
	validTheme := false
	for _, t := range ListThemes() {
		if t == theme {
			validTheme = true
			break
		}
	}
	if !validTheme {
		fmt.Printf("Invalid theme '%s'. Use --list-themes to see available options.\n", theme)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(serverURL, *refreshFlag, theme), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
