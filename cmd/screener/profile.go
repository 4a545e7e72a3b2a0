package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/auth"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
)

var profileCommand = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your account profile",
}

var profileShowCommand = &cobra.Command{
	Use:   "show",
	Short: "Show your profile and analysis statistics",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileUpdateCommand = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields; omitted flags are left unchanged",
	Args:  cobra.NoArgs,
	RunE:  runProfileUpdate,
}

var profileJSON bool

func init() {
	profileCommand.PersistentFlags().BoolVar(&profileJSON, "json", false, "Print JSON instead of text")

	f := profileUpdateCommand.Flags()
	f.String("name", "", "Full name")
	f.String("avatar-url", "", "Avatar URL")
	f.String("company", "", "Company")
	f.String("role", "", "Role")

	profileCommand.AddCommand(profileShowCommand, profileUpdateCommand)
	rootCmd.AddCommand(profileCommand)
}

// signedInUser returns the session user, or an error when signed out.
func signedInUser(cmd *cobra.Command, a *app) (uuid.UUID, error) {
	if a.profiles == nil {
		return uuid.Nil, auth.ErrRemoteDisabled
	}
	id, err := a.sessions.CurrentIdentity(cmd.Context())
	if err != nil {
		return uuid.Nil, err
	}
	if !id.IsAuthenticated() {
		return uuid.Nil, fmt.Errorf("not signed in: run 'screener auth login' first")
	}
	return uuid.Parse(id.UserID)
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := signedInUser(cmd, a)
	if err != nil {
		return err
	}
	p, err := a.profiles.Get(cmd.Context(), userID)
	if err != nil {
		return err
	}
	stats := a.coord.Stats(cmd.Context())

	if profileJSON {
		return writeJSON(cmd, map[string]any{"profile": p, "stats": stats})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:    %s\n", p.FullName)
	fmt.Fprintf(out, "Company: %s\n", p.Company)
	fmt.Fprintf(out, "Role:    %s\n", p.Role)
	if p.AvatarURL != "" {
		fmt.Fprintf(out, "Avatar:  %s\n", p.AvatarURL)
	}
	observability.NewPrinter(out).PrintStats(stats)
	return nil
}

func runProfileUpdate(cmd *cobra.Command, _ []string) error {
	update := &types.ProfileUpdate{}
	flags := map[string]**string{
		"name":       &update.FullName,
		"avatar-url": &update.AvatarURL,
		"company":    &update.Company,
		"role":       &update.Role,
	}
	for name, dst := range flags {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			*dst = &v
		}
	}
	if update.Empty() {
		return fmt.Errorf("nothing to update: pass at least one of --name, --avatar-url, --company, --role")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := signedInUser(cmd, a)
	if err != nil {
		return err
	}
	p, err := a.profiles.Update(cmd.Context(), userID, update)
	if err != nil {
		return err
	}
	if profileJSON {
		return writeJSON(cmd, p)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
	return nil
}
