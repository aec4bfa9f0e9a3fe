// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/envconfig"
	"github.com/mgua/sdbx/index"
	"github.com/mgua/sdbx/logutil"
	"github.com/mgua/sdbx/version"
	"github.com/mgua/sdbx/vocab"
)

// Serve startet den HTTP-Server auf ln
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	cat, err := vocab.FromEnvironment()
	if err != nil {
		return err
	}
	slog.Info("vocabulary loaded", "families", cat.Len())

	if err := os.MkdirAll(filepath.Dir(envconfig.Index()), 0o755); err != nil {
		return err
	}

	c := classify.New(cat)
	idx, err := index.Open(envconfig.Index(), c)
	if err != nil {
		return err
	}
	defer idx.Close()

	s := NewServer(c, idx)
	s.addr = ln.Addr()

	ctx, done := context.WithCancel(context.Background())
	srvr := &http.Server{
		Handler: s.GenerateRoutes(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// listen for a ctrl+c and cancel running scans
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		done()
		return err
	}
	<-ctx.Done()
	return nil
}
