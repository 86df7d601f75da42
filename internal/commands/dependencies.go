package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/compliancegen/internal/api"
	"github.com/diogo/compliancegen/internal/config"
	"github.com/diogo/compliancegen/internal/history"
	"github.com/diogo/compliancegen/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// Tests replace them to run commands without a terminal or network.
type Dependencies struct {
	LoadConfig  func() (config.Config, error)
	LoadAPIKey  func() (string, error)
	NewFactory  func(api.FactoryOptions) (api.ClientFactory, error)
	OpenHistory func() (*history.Store, error)
	NewLogger   func(verbose, interactive bool) (*zap.Logger, error)

	RunTUI    func(tui.Options) error
	Clipboard func(string) error

	// IsTTY reports whether stdout is a terminal
	IsTTY     func() bool
	TermWidth func() int
	// ReadSecret reads a line from the terminal without echo
	ReadSecret func() (string, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		LoadConfig:  config.LoadConfig,
		LoadAPIKey:  config.LoadAPIKey,
		NewFactory:  api.NewFactory,
		OpenHistory: history.DefaultStore,
		NewLogger:   newLogger,
		RunTUI:      tui.Run,
		Clipboard:   clipboard.WriteAll,
		IsTTY:       isStdoutTTY,
		TermWidth:   getTerminalWidth,
		ReadSecret:  readSecret,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func readSecret() (string, error) {
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
