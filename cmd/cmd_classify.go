// cmd_classify.go - Lokale Klassifikation und Katalog-Anzeige
// Hauptfunktionen: ClassifyHandler, VocabHandler, suggestFamily
package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/metadata"
	"github.com/mgua/sdbx/vocab"
)

// ClassifyHandler - Klassifiziert Dateien lokal ohne Server
func ClassifyHandler(cmd *cobra.Command, args []string) error {
	cat, err := vocab.FromEnvironment()
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	showScores, _ := cmd.Flags().GetBool("scores")

	c := classify.New(cat)
	out := cmd.OutOrStdout()

	type classified struct {
		Path   string             `json:"path"`
		Tag    *metadata.ModelTag `json:"tag"`
		Result *classify.Result   `json:"result"`
	}

	var results []classified
	table := newTable(out, "FILE", "FORMAT", "DTYPE", "TENSORS", "SIZE", "FAMILY")
	width := termWidth(out) / 3

	for _, path := range args {
		tag, result, err := c.Classify(path)
		if err != nil {
			return err
		}

		if asJSON {
			results = append(results, classified{Path: path, Tag: tag, Result: result})
			continue
		}

		family := "unknown"
		if !result.Unknown() {
			family = strings.Join(result.Best, ",")
		}

		table.Append([]string{
			truncateLeft(path, width),
			tag.Format,
			tag.Dtype,
			strconv.Itoa(tag.TensorCount),
			humanBytes(tag.SizeBytes),
			family,
		})

		if showScores {
			for _, label := range cat.Labels() {
				if score := result.Scores[label]; score > 0 {
					table.Append([]string{"", "", "", "", "", fmt.Sprintf("  %s=%d", label, score)})
				}
			}
		}
	}

	if asJSON {
		return printJSON(out, results)
	}

	table.Render()
	return nil
}

// VocabHandler - Zeigt den Katalog oder die Tokens einer Familie
func VocabHandler(cmd *cobra.Command, args []string) error {
	cat, err := vocab.FromEnvironment()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		f, ok := cat.Family(args[0])
		if !ok {
			if s := suggestFamily(cat, args[0]); s != "" {
				return fmt.Errorf("unknown family %q, did you mean %q?", args[0], s)
			}
			return fmt.Errorf("unknown family %q", args[0])
		}

		for _, token := range f.Tokens {
			fmt.Fprintln(out, token)
		}
		return nil
	}

	table := newTable(out, "FAMILY", "TOKENS", "SCORED BY")
	for _, f := range cat.Families() {
		var last string
		if len(f.Tokens) > 0 {
			last = f.Tokens[len(f.Tokens)-1]
		}
		table.Append([]string{f.Label, strconv.Itoa(len(f.Tokens)), last})
	}
	table.Render()
	return nil
}

// suggestFamily - Naechstgelegener Familienname nach Levenshtein-Distanz.
// Leer, wenn kein Name nah genug ist.
func suggestFamily(cat *vocab.Catalogue, name string) string {
	name = strings.ToLower(name)

	labels := cat.Labels()
	if len(labels) == 0 {
		return ""
	}

	distances := make(map[string]int, len(labels))
	for _, label := range labels {
		distances[label] = levenshtein.ComputeDistance(name, label)
	}

	best := slices.MinFunc(labels, func(a, b string) int {
		return distances[a] - distances[b]
	})

	if distances[best] > max(len(best)/2, 1) {
		return ""
	}
	return best
}

// newClassifyCmd - Erstellt den classify Command
func newClassifyCmd() *cobra.Command {
	classifyCmd := &cobra.Command{
		Use:   "classify FILE...",
		Short: "Classify model files by their header",
		Args:  cobra.MinimumNArgs(1),
		RunE:  ClassifyHandler,
	}

	classifyCmd.Flags().Bool("json", false, "Print the model tags and scores as JSON")
	classifyCmd.Flags().Bool("scores", false, "Show the score of every matching family")

	return classifyCmd
}

// newVocabCmd - Erstellt den vocab Command
func newVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab [FAMILY]",
		Short: "Show the classification catalogue",
		Args:  cobra.MaximumNArgs(1),
		RunE:  VocabHandler,
	}
}
