package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/whispa-ai/whispad/api"
	"github.com/whispa-ai/whispad/config"
	"github.com/whispa-ai/whispad/internal/types"
)

var (
	flagEmail    string
	flagPassword string
	flagName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the bearer credential",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and store the bearer credential",
	RunE:  runRegister,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the stored credential against the service",
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "account email")
		c.Flags().StringVar(&flagPassword, "password", "", "account password")
	}
	registerCmd.Flags().StringVar(&flagName, "name", "", "full name")
}

func newClient(cfg *config.Config) *api.Client {
	return api.New(api.Config{
		BaseURL: apiBaseURL(cfg.APIBaseURL),
		Tokens:  cfg,
	})
}

// promptCredentials fills missing email/password interactively.
func promptCredentials() error {
	var err error
	if flagEmail == "" {
		flagEmail, err = pterm.DefaultInteractiveTextInput.Show("Email")
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}
	if flagPassword == "" {
		flagPassword, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := promptCredentials(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	res, err := newClient(cfg).Login(cmd.Context(), flagEmail, flagPassword)
	if err != nil {
		pterm.Error.Println("Could not reach the Whispa API.")
		return err
	}
	if !res.OK {
		pterm.Error.Println("Login failed:", res.Message)
		return fmt.Errorf("login rejected")
	}

	return persistAuth(cfg, res)
}

func runRegister(cmd *cobra.Command, args []string) error {
	if err := promptCredentials(); err != nil {
		return err
	}
	if flagName == "" {
		var err error
		flagName, err = pterm.DefaultInteractiveTextInput.Show("Full name")
		if err != nil {
			return fmt.Errorf("read name: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	res, err := newClient(cfg).Register(cmd.Context(), flagEmail, flagPassword, flagName)
	if err != nil {
		pterm.Error.Println("Could not reach the Whispa API.")
		return err
	}
	if !res.OK {
		pterm.Error.Println("Registration failed:", res.Message)
		return fmt.Errorf("registration rejected")
	}

	return persistAuth(cfg, res)
}

func persistAuth(cfg *config.Config, res api.AuthResult) error {
	cfg.Enabled = true
	cfg.Profile = &types.Profile{
		FullName:    res.Profile.FullName,
		PrivacyMode: res.Profile.PrivacyMode,
	}
	if err := cfg.StoreToken(res.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	pterm.Success.Printfln("Logged in as %s", res.Profile.FullName)
	if res.Profile.PrivacyMode {
		pterm.Info.Println("Privacy mode is on: generated notes stay local.")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	token, okTok := cfg.Token()
	if !okTok {
		pterm.Warning.Println("Not logged in (or the extension is disabled).")
		return nil
	}

	res, err := newClient(cfg).ValidateToken(cmd.Context(), token)
	if err != nil {
		pterm.Error.Println("Could not reach the Whispa API.")
		return err
	}
	if !res.OK {
		pterm.Warning.Println("Stored credential rejected:", res.Message)
		return nil
	}

	pterm.Success.Printfln("Token valid for %s", res.Profile.FullName)
	if res.Token != token {
		slog.Debug("service rotated the token")
		if err := cfg.StoreToken(res.Token); err != nil {
			slog.Warn("store rotated token", "error", err)
		}
	}
	return nil
}
