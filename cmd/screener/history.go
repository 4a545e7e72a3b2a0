package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/server"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show and manage saved analyses",
	Long: `Lists the analyses of the current identity: the local history when signed out,
your account history when signed in.`,
}

var historyListCommand = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCommand = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCommand = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole local history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var (
	historyJSON bool
	historyYes  bool
)

func init() {
	historyCommand.PersistentFlags().BoolVar(&historyJSON, "json", false, "Print JSON instead of text")
	historyClearCommand.Flags().BoolVarP(&historyYes, "yes", "y", false, "Do not ask for confirmation")

	historyCommand.AddCommand(historyListCommand, historyShowCommand, historyDeleteCommand, historyClearCommand)
	rootCmd.AddCommand(historyCommand)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	st := a.coord.State()
	if historyJSON {
		return writeJSON(cmd, st.History)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(st.History, "")
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	rec, ok := a.coord.State().Find(args[0])
	if !ok {
		return fmt.Errorf("analysis %s: %w", args[0], server.ErrNotFound)
	}
	if historyJSON {
		return writeJSON(cmd, rec)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintAnalysis(&rec)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if _, ok := a.coord.State().Find(args[0]); !ok {
		return fmt.Errorf("analysis %s: %w", args[0], server.ErrNotFound)
	}
	if _, err := a.coord.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if !historyYes {
		ok, err := confirm("Delete all locally saved analyses")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted.")
			return nil
		}
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.coord.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Local history cleared.")
	return nil
}

// confirm asks a yes/no question. Aborting the prompt counts as no.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
