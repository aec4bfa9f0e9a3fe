// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mgua/sdbx/envconfig"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "sdbx",
		Short:         "Model file classification and parameter tuning",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Commands erstellen
	serveCmd := newServeCmd()
	classifyCmd := newClassifyCmd()
	vocabCmd := newVocabCmd()
	tuneCmd := newTuneCmd()
	evaluateCmd := newEvaluateCmd()
	scanCmd := newScanCmd()
	listCmd := newListCmd()
	cacheCmd := newCacheCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	envs := []envconfig.EnvVar{envVars["SDBX_HOST"]}

	for _, cmd := range []*cobra.Command{
		serveCmd,
		classifyCmd,
		vocabCmd,
		tuneCmd,
		evaluateCmd,
		scanCmd,
		listCmd,
		cacheCmd,
	} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["SDBX_DEBUG"],
				envVars["SDBX_HOST"],
				envVars["SDBX_ORIGINS"],
				envVars["SDBX_MODELS"],
				envVars["SDBX_VOCABULARY"],
				envVars["SDBX_INDEX"],
				envVars["SDBX_MAX_HEADER_SIZE"],
				envVars["SDBX_MAX_ARRAY_SIZE"],
				envVars["SDBX_MAX_CHECKPOINT_SIZE"],
				envVars["SDBX_SCAN_PARALLEL"],
			})
		case classifyCmd, vocabCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["SDBX_VOCABULARY"],
				envVars["SDBX_MAX_HEADER_SIZE"],
				envVars["SDBX_MAX_ARRAY_SIZE"],
				envVars["SDBX_MAX_CHECKPOINT_SIZE"],
			})
		default:
			appendEnvDocs(cmd, envs)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		classifyCmd,
		vocabCmd,
		tuneCmd,
		evaluateCmd,
		scanCmd,
		listCmd,
		cacheCmd,
	)

	return rootCmd
}
