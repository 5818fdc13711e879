// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"repoforge/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - shared adaptive colors for consistent theming across all
// CLI output. Each color carries a light and a dark variant; which one is
// rendered depends on the detected (or configured) terminal background.
var (
	// ColorPrimary is purple - used for titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#7C3AED"}

	// ColorMuted is gray - used for subtitles, secondary text, and de-emphasized content.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#6B7280"}

	// ColorSuccess is green - used for success states and positive outcomes.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}

	// ColorError is red - used for errors and failures.
	ColorError = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}

	// ColorWarning is amber - used for warnings and attention-needed items.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}

	// ColorHighlight is blue - used for image references, container IDs, and paths.
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
)

// Base styles - reusable lipgloss styles built from the color palette.
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// RefStyle is for image references, container IDs, and file paths.
	RefStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// applyColorScheme pins the background assumption the adaptive palette is
// resolved against. ColorSchemeAuto keeps lipgloss's terminal detection.
func applyColorScheme(scheme config.ColorScheme) {
	switch scheme {
	case config.ColorSchemeDark:
		lipgloss.DefaultRenderer().SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.DefaultRenderer().SetHasDarkBackground(false)
	}
}
