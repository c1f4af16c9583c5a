// Package ui holds the terminal styling helpers shared by the CLI commands.
package ui

import "github.com/fatih/color"

// Sprint color functions for building styled strings.
var (
	Bold      = color.New(color.Bold).SprintFunc()
	Dim       = color.New(color.Faint).SprintFunc()
	Green     = color.New(color.FgGreen).SprintFunc()
	Yellow    = color.New(color.FgYellow).SprintFunc()
	BoldCyan  = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen = color.New(color.Bold, color.FgGreen).SprintFunc()
)
