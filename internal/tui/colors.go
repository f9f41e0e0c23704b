package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
)

// Color constants for the board theme
const (
	// Base Colors
	ColorCardBackground = "#1B1530" // Dark purple
	ColorBorder         = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240"

	// Accent Colors (Purple theme)
	ColorAccentMain   = "#7C3AED" // Active borders, dragged card
	ColorAccentBright = "#A78BFA" // Cursor, highlights

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
	ColorInfo    = "#38BDF8"
)

// columnColor tints each column heading
func columnColor(status models.Status) lipgloss.Color {
	switch status {
	case models.StatusInProgress:
		return lipgloss.Color(ColorWarning)
	case models.StatusDone:
		return lipgloss.Color(ColorSuccess)
	}
	return lipgloss.Color(ColorInfo)
}

func priorityColor(p models.Priority) lipgloss.Color {
	switch p {
	case models.PriorityUrgent:
		return lipgloss.Color(ColorError)
	case models.PriorityHigh:
		return lipgloss.Color(ColorWarning)
	case models.PriorityMedium:
		return lipgloss.Color(ColorAccentBright)
	}
	return lipgloss.Color(ColorSecondaryText)
}

func dueColor(state parser.DueState) lipgloss.Color {
	switch state {
	case parser.DueOverdue:
		return lipgloss.Color(ColorError)
	case parser.DueToday, parser.DueTomorrow:
		return lipgloss.Color(ColorWarning)
	case parser.DueSoon:
		return lipgloss.Color(ColorAccentBright)
	}
	return lipgloss.Color(ColorSecondaryText)
}
