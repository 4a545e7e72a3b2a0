package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCommand = &cobra.Command{
	Use:   "auth",
	Short: "Manage your account session",
	Long:  `Signing in switches the visible history to your account; signing out switches back to this machine.`,
}

var authRegisterCommand = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runAuthRegister,
}

var authLoginCommand = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authLogoutCommand = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authWhoamiCommand = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	Args:  cobra.NoArgs,
	RunE:  runAuthWhoami,
}

var (
	authEmail    string
	authPassword string
	authName     string
	authCompany  string
	authRole     string
)

func init() {
	for _, c := range []*cobra.Command{authRegisterCommand, authLoginCommand} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email (required)")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
		_ = c.MarkFlagRequired("email")
	}
	authRegisterCommand.Flags().StringVar(&authName, "name", "", "Full name (required)")
	authRegisterCommand.Flags().StringVar(&authCompany, "company", "", "Company")
	authRegisterCommand.Flags().StringVar(&authRole, "role", "", "Role")
	_ = authRegisterCommand.MarkFlagRequired("name")

	authCommand.AddCommand(authRegisterCommand, authLoginCommand, authLogoutCommand, authWhoamiCommand)
	rootCmd.AddCommand(authCommand)
}

func runAuthRegister(cmd *cobra.Command, _ []string) error {
	password, err := passwordFromFlagOrPrompt(cmd)
	if err != nil {
		return err
	}
	req := &types.CreateUserRequest{
		FullName: authName,
		Email:    authEmail,
		Password: password,
		Company:  authCompany,
		Role:     authRole,
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.sessions.Register(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", resp.User.Email)
	return nil
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	password, err := passwordFromFlagOrPrompt(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.sessions.SignIn(cmd.Context(), &types.LoginRequest{Email: authEmail, Password: password})
	if err != nil {
		return err
	}
	st := a.coord.State()
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%d saved analyses)\n", resp.User.Email, len(st.History))
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.sessions.SignOut(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runAuthWhoami(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	id, err := a.sessions.CurrentIdentity(cmd.Context())
	if err != nil {
		return err
	}
	if !id.IsAuthenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Analyses are saved on this machine.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", id.Email, id.UserID)
	return nil
}

// passwordFromFlagOrPrompt returns --password, or asks for it with a masked
// prompt. Piped input is read as a single line.
func passwordFromFlagOrPrompt(cmd *cobra.Command) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if !isTerminal(cmd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("password is required")
			}
			return nil
		},
	}
	return prompt.Run()
}

// isTerminal reports whether the command reads from an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
