package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/compliancegen/internal/config"
	apierrors "github.com/diogo/compliancegen/internal/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
		Long: `Show or edit the configuration stored in ~/.compliancegen/config.json.

Set ` + config.HomeEnv + ` to use another directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow()
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigInit(force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the API key in the credentials file",
		Long: `Store the API key in the credentials file.

Without an argument the key is read from the terminal without echo,
or from stdin when it is not a terminal. ` + config.APIKeyEnv + ` takes
precedence over the stored key.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSetKey(args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigValidate()
		},
	})

	return cmd
}

func (a *app) runConfigShow() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintf(a.deps.Stdout, "Config file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(a.deps.Stdout, dimStyle.Render("(not created yet, showing defaults)"))
	}
	fmt.Fprintf(a.deps.Stdout, "API key:     %s\n\n", a.keyStatus())
	fmt.Fprintln(a.deps.Stdout, string(data))
	return nil
}

func (a *app) keyStatus() string {
	key, err := a.deps.LoadAPIKey()
	if err != nil {
		return "not set"
	}
	source := "credentials file"
	if os.Getenv(config.APIKeyEnv) != "" {
		source = config.APIKeyEnv
	}
	return fmt.Sprintf("%s (%s)", config.MaskKey(key), source)
}

func (a *app) runConfigInit(force bool) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Fprintln(a.deps.Stdout, successStyle.Render("✓ Wrote "+path))
	return nil
}

func (a *app) runConfigSetKey(args []string) error {
	var key string
	switch {
	case len(args) == 1:
		key = args[0]
	case a.deps.IsTTY():
		fmt.Fprint(a.deps.Stderr, "API key: ")
		secret, err := a.deps.ReadSecret()
		fmt.Fprintln(a.deps.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = secret
	default:
		line, err := bufio.NewReader(a.deps.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read key from stdin: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if err := config.SaveAPIKey(key); err != nil {
		return err
	}

	path, _ := config.GetCredentialsPath()
	fmt.Fprintln(a.deps.Stdout, successStyle.Render(fmt.Sprintf("✓ Saved key %s to %s", config.MaskKey(key), path)))
	return nil
}

func (a *app) runConfigValidate() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if _, err := a.deps.LoadAPIKey(); err != nil {
		if errors.Is(err, apierrors.ErrMissingAPIKey) {
			fmt.Fprintln(a.deps.Stdout, warnStyle.Render("⚠ Configuration is valid but no API key is set"))
		}
		return err
	}

	fmt.Fprintf(a.deps.Stdout, "%s %d candidate(s), backend %s\n",
		successStyle.Render("✓ Configuration is valid:"), len(a.cfg.CandidateList), a.cfg.Backend)
	return nil
}
