// config.go - Haupt-Konfigurationsfunktionen fuer sdbx
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (SDBX_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (SDBX_ORIGINS)
// - Models: Gibt Model-Verzeichnis zurueck (SDBX_MODELS)
// - Vocabulary: Pfad zum Klassifikations-Katalog (SDBX_VOCABULARY)
// - Index: Pfad zur SQLite-Model-Datenbank (SDBX_INDEX)
// - LogLevel: Gibt Log-Level zurueck (SDBX_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Limits und Parallelitaet
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via SDBX_HOST
// Default: http://127.0.0.1:8188
func Host() *url.URL {
	defaultPort := "8188"

	s := strings.TrimSpace(Var("SDBX_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via SDBX_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("SDBX_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	// Editor-Frontends (Tauri, Electron)
	origins = append(origins,
		"app://*",
		"file://*",
		"tauri://*",
	)

	return origins
}

// home gibt das sdbx-Basisverzeichnis zurueck ($HOME/.sdbx)
func home() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(dir, ".sdbx")
}

// Models gibt das Model-Verzeichnis zurueck
// Konfigurierbar via SDBX_MODELS
// Default: $HOME/.sdbx/models
func Models() string {
	if s := Var("SDBX_MODELS"); s != "" {
		return s
	}

	return filepath.Join(home(), "models")
}

// Vocabulary gibt den Pfad zum Klassifikations-Katalog zurueck
// Konfigurierbar via SDBX_VOCABULARY
// Leer = eingebetteter Standard-Katalog
func Vocabulary() string {
	return Var("SDBX_VOCABULARY")
}

// Index gibt den Pfad zur Model-Index-Datenbank zurueck
// Konfigurierbar via SDBX_INDEX
// Default: $HOME/.sdbx/index.db
func Index() string {
	if s := Var("SDBX_INDEX"); s != "" {
		return s
	}

	return filepath.Join(home(), "index.db")
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via SDBX_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("SDBX_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
