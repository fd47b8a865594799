package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#1677FF") // DingTalk blue
	secondaryColor = lipgloss.Color("#10B981") // green
	mutedColor     = lipgloss.Color("#6B7280") // gray
	dangerColor    = lipgloss.Color("#EF4444") // red
	warnColor      = lipgloss.Color("#F59E0B") // yellow

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	okStyle      = lipgloss.NewStyle().Foreground(secondaryColor)
	errorStyle   = lipgloss.NewStyle().Foreground(dangerColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(secondaryColor)
)

func ShowHeader(title string) {
	rule := strings.Repeat("─", lipgloss.Width(title)+2)
	fmt.Printf(" %s\n", mutedStyle.Render(rule))
	fmt.Printf(" %s\n", headerStyle.Render(title))
	fmt.Printf(" %s\n", mutedStyle.Render(rule))
}

// ShowRobot prints one entry of a robot listing.
func ShowRobot(num int, name, provider, endpoint string, isDefault bool) {
	label := name
	if isDefault {
		label = currentStyle.Render(name + " (default)")
	}
	fmt.Printf("  %d. %s %s\n", num, label, mutedStyle.Render("["+provider+"]"))
	fmt.Printf("     URL: %s\n", endpoint)
}

func ShowField(label, value string) {
	fmt.Printf("  %s %s\n", mutedStyle.Render(label+":"), value)
}

func ShowSuccess(format string, args ...any) {
	fmt.Printf(" %s %s\n", okStyle.Render("✓"), fmt.Sprintf(format, args...))
}

func ShowError(msg string, err error) {
	if err != nil {
		fmt.Printf(" %s %s: %v\n", errorStyle.Render("✗"), msg, err)
	} else {
		fmt.Printf(" %s %s\n", errorStyle.Render("✗"), msg)
	}
}

func ShowWarning(format string, args ...any) {
	fmt.Printf(" %s %s\n", warnStyle.Render("!"), fmt.Sprintf(format, args...))
}

func ShowInfo(format string, args ...any) {
	fmt.Printf(" %s %s\n", mutedStyle.Render("ℹ"), fmt.Sprintf(format, args...))
}
