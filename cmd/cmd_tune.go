// cmd_tune.go - Tuning und Graph-Auswertung ueber den Server
// Hauptfunktionen: TuneHandler, EvaluateHandler, CacheClearHandler
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgua/sdbx/api"
	"github.com/mgua/sdbx/graph"
)

// TuneHandler - Getunte Parameter fuer eine Modell-Datei
func TuneHandler(cmd *cobra.Command, args []string) error {
	widgets, err := parseWidgets(args[2:])
	if err != nil {
		return err
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	resp, err := client.Tune(cmd.Context(), &api.TuneRequest{
		Path:         absPath(args[0]),
		Function:     args[1],
		WidgetInputs: widgets,
	})
	if err != nil {
		return err
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		return printJSON(cmd.OutOrStdout(), resp.Parameters)
	}
	return printJSON(cmd.OutOrStdout(), resp.Parameters.For(resp.Function))
}

// EvaluateHandler - Wertet einen Graphen aus einer JSON-Datei aus
func EvaluateHandler(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := graph.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	resp, err := client.Evaluate(cmd.Context(), &api.EvaluateRequest{Graph: g.Document()})
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), resp)
}

// CacheClearHandler - Leert den Tuning-Cache des Servers
func CacheClearHandler(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	if err := client.ClearCache(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "tuning cache cleared")
	return nil
}

// newTuneCmd - Erstellt den tune Command
func newTuneCmd() *cobra.Command {
	tuneCmd := &cobra.Command{
		Use:     "tune FILE FUNCTION [KEY=VALUE...]",
		Short:   "Show tuned parameters for a model file",
		Args:    cobra.MinimumNArgs(2),
		PreRunE: checkServerHeartbeat,
		RunE:    TuneHandler,
	}

	tuneCmd.Flags().Bool("all", false, "Show the parameters for every downstream function")

	return tuneCmd
}

// newEvaluateCmd - Erstellt den evaluate Command
func newEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "evaluate GRAPH",
		Short:   "Propagate tuned parameters through a node graph",
		Args:    cobra.ExactArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    EvaluateHandler,
	}
}

// newCacheCmd - Erstellt den cache Command mit Unterbefehlen
func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the tuning cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:     "clear",
		Short:   "Drop all cached tunings",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    CacheClearHandler,
	})

	return cacheCmd
}
