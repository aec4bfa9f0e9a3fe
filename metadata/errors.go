// errors.go - Fehler-Typen des Header-Parsers
//
// Enthaelt:
// - ErrNotFound/ErrUnsupportedFormat: Sentinels fuer errors.Is
// - NotFoundError: Datei fehlt, nennt den Pfad
// - UnsupportedFormatError: Unbekannte Endung oder Altformat, nennt die Endung
package metadata

import "errors"

var (
	// ErrNotFound wenn die Datei nicht existiert
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFormat wenn die Dateiendung keinem Container-Format entspricht
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// NotFoundError repraesentiert eine fehlende Modell-Datei
type NotFoundError struct {
	Path string
}

// Error implementiert das error Interface
func (e *NotFoundError) Error() string {
	return e.Path + ": " + ErrNotFound.Error()
}

// Unwrap ermoeglicht errors.Is
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// UnsupportedFormatError repraesentiert eine Datei mit unbekannter Endung
// oder einem Container, der zur Endung passt, aber nicht gelesen wird
type UnsupportedFormatError struct {
	Path      string
	Extension string

	// Container ist das erkannte Format, z.B. ggjt fuer eine .gguf-Datei
	// im Vorgaengerformat
	Container string
}

// Error implementiert das error Interface
func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}

	msg := e.Path + ": " + ErrUnsupportedFormat.Error() + " " + ext
	if e.Container != "" {
		msg += " (" + e.Container + " container)"
	}
	return msg
}

// Unwrap ermoeglicht errors.Is
func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}
