package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

type helpCommand struct{ cmd, desc string }

var commands = []helpCommand{
	{"webadmin", "Manage users (interactive TUI)"},
	{"webadmin login", "Sign in with email and password"},
	{"webadmin logout", "End your session"},
	{"webadmin whoami", "Show the signed-in user"},
	{"webadmin web", "Open the web frontend"},
	{"webadmin --version", "Show version"},
	{"webadmin help", "You are here"},
}

var envVars = []helpCommand{
	{"WEBADMIN_API_URL", "API base URL (default http://localhost:8000)"},
	{"WEBADMIN_TOKEN", "Use this token for one run, never saved"},
	{"WEBADMIN_TOKEN_STORE", "file, redis or memory"},
	{"WEBADMIN_LOG_FILE", "Where logs go (default ~/.webadmin/webadmin.log)"},
}

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#60a5fa")).
		Bold(true).
		Render("W E B A D M I N")

	sub := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("User administration from the terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", title, sub)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintf(w, "\n  Environment:\n")
	for _, e := range envVars {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", e.cmd)), descStyle.Render(e.desc))
	}
	fmt.Fprintln(w)
}
