// cmd_utils.go - Gemeinsame Hilfsfunktionen
// Hauptfunktionen: checkServerHeartbeat, newTable, humanBytes, printJSON
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mgua/sdbx/api"
)

// checkServerHeartbeat - Prueft ob der Server erreichbar ist
func checkServerHeartbeat(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}
	if err := client.Heartbeat(cmd.Context()); err != nil {
		if strings.Contains(err.Error(), " refused") || strings.Contains(err.Error(), "could not connect") {
			return fmt.Errorf("sdbx server not responding, start it with 'sdbx serve' - %w", err)
		}
		return err
	}
	return nil
}

// newTable - Tabelle im Stil von 'sdbx list'
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// termWidth - Breite des Terminals, 0 wenn w kein Terminal ist
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// truncateLeft - Kuerzt s von links auf width Spalten, 0 = ungekuerzt
func truncateLeft(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}

	runes := []rune(s)
	for i := range runes {
		if tail := string(runes[i:]); runewidth.StringWidth(tail) <= width-3 {
			return "..." + tail
		}
	}
	return runewidth.Truncate(s, width, "...")
}

// humanBytes - Dateigroesse in lesbarer Form
func humanBytes(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}

	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}

// printJSON - Gibt v eingerueckt aus
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseWidgets - Wandelt key=value Argumente in Widget-Eingaben um. Werte
// werden als JSON gelesen, sonst als String uebernommen.
func parseWidgets(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}

	widgets := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid widget input %q, expected key=value", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(v), &value); err != nil {
			value = v
		}
		widgets[k] = value
	}
	return widgets, nil
}
