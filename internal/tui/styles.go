// Package tui provides the interactive product form for compliancegen.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/resolver"
)

// Tokyo Night palette
var (
	colorBorder    = lipgloss.Color("#414868")
	colorPrimary   = lipgloss.Color("#7aa2f7")
	colorSecondary = lipgloss.Color("#9ece6a")
	colorAccent    = lipgloss.Color("#bb9af7")
	colorWarning   = lipgloss.Color("#e0af68")
	colorError     = lipgloss.Color("#f7768e")
	colorText      = lipgloss.Color("#c0caf5")
	colorTextDim   = lipgloss.Color("#565f89")
	colorTextMute  = lipgloss.Color("#3b4261")
)

var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Width(14)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				Width(14)

	requiredStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	selectorStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Padding(0, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	focusedButtonStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				Padding(0, 2).
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	loadingStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			MarginTop(1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Bold(true)

	statusDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMute)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Italic(true)

	validationStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// FormatError returns a styled error message with the details carried by
// typed errors. Exhausted resolutions list every attempt.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", headline(err))))

	var exhausted *resolver.ExhaustedError
	if errors.As(err, &exhausted) && len(exhausted.Attempts) > 0 {
		sb.WriteString(dimStyle.Render("\n  Attempts:"))
		for _, line := range strings.Split(exhausted.Summary(), "\n") {
			sb.WriteString(dimStyle.Render("\n    " + line))
		}
	}

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if hint := Hint(err); hint != "" {
		sb.WriteString(dimStyle.Render("\n  Hint: " + hint))
	}

	return sb.String()
}

// headline keeps the first line of the error; attempts are listed separately
func headline(err error) error {
	var exhausted *resolver.ExhaustedError
	if errors.As(err, &exhausted) {
		return fmt.Errorf("all %d candidate attempts failed", len(exhausted.Attempts))
	}
	return err
}

// Hint suggests a next step for well known failures
func Hint(err error) string {
	switch {
	case errors.Is(err, apierrors.ErrMissingAPIKey):
		return "Set GEMINI_API_KEY or run 'compliancegen config set-key'"
	case errors.Is(err, apierrors.ErrMissingField):
		return "Product name and HS code are required"
	case errors.Is(err, apierrors.ErrNoCandidates):
		return "Add at least one candidate to the config ('compliancegen config init')"
	case apierrors.IsAuthError(err):
		return "The API key was rejected. Check it with 'compliancegen config show'"
	case apierrors.IsPermissionDenied(err):
		return "The API key may not use this model. Try another candidate"
	case apierrors.IsNotFound(err):
		return "The model identifier is not available. Run 'compliancegen candidates'"
	case apierrors.IsQuotaError(err):
		return "Usage limit reached. Try again later"
	case apierrors.IsTimeoutError(err):
		return "Request timed out. Raise timeout_seconds in the config"
	case apierrors.IsNetworkError(err):
		return "Check your internet connection and try again"
	case apierrors.IsBlockedError(err):
		return "The response was blocked by safety filters"
	}
	return ""
}

// PrintError prints a styled error message.
func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Println(FormatError(err))
}
