// cmd_serve.go - serve Command und Versions-Ausgabe
// Hauptfunktionen: RunServer, versionHandler, newServeCmd
package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mgua/sdbx/api"
	"github.com/mgua/sdbx/envconfig"
	"github.com/mgua/sdbx/server"
	"github.com/mgua/sdbx/version"
)

// RunServer lauscht auf SDBX_HOST und blockiert bis zum Shutdown
func RunServer(_ *cobra.Command, _ []string) error {
	addr := envconfig.Host().Host
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// versionHandler gibt Server- und Client-Version aus und warnt, wenn sie
// voneinander abweichen oder kein Server laeuft
func versionHandler(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	remote, err := client.Version(cmd.Context())
	switch {
	case err != nil:
		fmt.Fprintln(out, "Warning: no sdbx server is running at", envconfig.Host())
	case remote != "":
		fmt.Fprintf(out, "sdbx server version %s\n", remote)
	}

	if remote != version.Version {
		fmt.Fprintf(out, "sdbx client version %s\n", version.Version)
	}
}

// newServeCmd - serve (Alias start)
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start sdbx",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
