// cmd_list.go - Scan und List Commands fuer den Model-Index
// Hauptfunktionen: ScanHandler, ListHandler
package cmd

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgua/sdbx/api"
	"github.com/mgua/sdbx/index"
)

// absPath - Pfade werden vom Server aufgeloest, daher absolut senden
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// ScanHandler - Nimmt ein Verzeichnis in den Index auf
func ScanHandler(cmd *cobra.Command, args []string) error {
	flag, _ := cmd.Flags().GetString("kind")
	kind, err := index.ParseKind(flag)
	if err != nil {
		return err
	}

	var dir string
	if len(args) > 0 {
		dir = absPath(args[0])
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	resp, err := client.Scan(cmd.Context(), &api.ScanRequest{Dir: dir, Kind: kind})
	if err != nil {
		return err
	}

	renderModels(cmd.OutOrStdout(), resp.Models)
	return nil
}

// ListHandler - Listet den Model-Index
func ListHandler(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	if kind != "" {
		if _, err := index.ParseKind(kind); err != nil {
			return err
		}
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	resp, err := client.Models(cmd.Context(), kind)
	if err != nil {
		return err
	}

	var models []index.Entry
	for _, m := range resp.Models {
		if len(args) == 0 || strings.Contains(strings.ToLower(m.Path), strings.ToLower(args[0])) {
			models = append(models, m)
		}
	}

	renderModels(cmd.OutOrStdout(), models)
	return nil
}

func renderModels(w io.Writer, models []index.Entry) {
	width := termWidth(w) / 2

	var data [][]string
	for _, m := range models {
		family := strings.Join(m.Families, ",")
		if family == "" {
			family = "unknown"
		}

		data = append(data, []string{
			truncateLeft(m.Path, width),
			string(m.Kind),
			family,
			humanBytes(m.SizeBytes),
			strconv.Itoa(m.TensorCount),
			m.UpdatedAt.Local().Format(time.DateTime),
		})
	}

	table := newTable(w, "PATH", "KIND", "FAMILY", "SIZE", "TENSORS", "UPDATED")
	table.AppendBulk(data)
	table.Render()
}

// newScanCmd - Erstellt den scan Command
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:     "scan [DIR]",
		Short:   "Classify a model directory and add it to the index",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    ScanHandler,
	}

	scanCmd.Flags().String("kind", "", "Model kind (LLM, DIF, TRA, VAE, LOR)")
	scanCmd.MarkFlagRequired("kind") //nolint:errcheck

	return scanCmd
}

// newListCmd - Erstellt den list Command
func newListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:     "list [FILTER]",
		Aliases: []string{"ls"},
		Short:   "List indexed models",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    ListHandler,
	}

	listCmd.Flags().String("kind", "", "Only list models of this kind")

	return listCmd
}
