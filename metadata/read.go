// read.go - Header-Parser fuer Modell-Dateien
//
// Enthaelt:
// - Read: Prueft die Datei, waehlt den Decoder nach Endung und baut den ModelTag
// - Formats/FormatOf: Unterstuetzte Endungen
// - Supported: Prueft ob eine Datei gelesen werden kann
package metadata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgua/sdbx/envconfig"
	sdbxfs "github.com/mgua/sdbx/fs"
	"github.com/mgua/sdbx/fs/ggml"
	"github.com/mgua/sdbx/fs/safetensors"
	"github.com/mgua/sdbx/fs/torch"
)

// Container-Formate
const (
	FormatSafetensors = "safetensors"
	FormatGGUF        = "gguf"
	FormatTorch       = "torch"
)

// Formats ordnet Dateiendungen den Container-Formaten zu
var Formats = map[string]string{
	".safetensors": FormatSafetensors,
	".sft":         FormatSafetensors,
	".gguf":        FormatGGUF,
	".pt":          FormatTorch,
	".pth":         FormatTorch,
	".ckpt":        FormatTorch,
}

// FormatOf gibt das Format zur Endung von path zurueck
func FormatOf(path string) (string, bool) {
	format, ok := Formats[strings.ToLower(filepath.Ext(path))]
	return format, ok
}

// Supported prueft ob path eine unterstuetzte Endung hat
func Supported(path string) bool {
	_, ok := FormatOf(path)
	return ok
}

// Read liest den Header von path und gibt einen neuen ModelTag sowie den
// dekodierten Header zurueck. Jedes dekodierte Objekt wird zuerst dem
// ModelTag und danach den visitors gemeldet.
//
// Die Datei wird nur gelesen. Bei einem Fehler sind beide Rueckgabewerte nil.
func Read(path string, visitors ...sdbxfs.Visitor) (*ModelTag, *sdbxfs.Object, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, nil, &NotFoundError{Path: path}
	} else if err != nil {
		return nil, nil, err
	}

	format, ok := FormatOf(path)
	if !ok {
		return nil, nil, &UnsupportedFormatError{Path: path, Extension: filepath.Ext(path)}
	}

	if format == FormatGGUF {
		if kind := sniffGGML(path); kind != "" && kind != "gguf" {
			return nil, nil, &UnsupportedFormatError{Path: path, Extension: filepath.Ext(path), Container: kind}
		}
	}

	tag := ModelTag{
		Filename:  filepath.Base(path),
		Format:    format,
		SizeBytes: info.Size(),
	}

	b := newBuilder(&tag)
	visit := sdbxfs.Visitors(append([]sdbxfs.Visitor{b.visit}, visitors...)...)

	var header *sdbxfs.Object
	switch format {
	case FormatSafetensors:
		header, err = readSafetensors(path, visit)
	case FormatGGUF:
		header, err = readGGUF(path, visit)
	case FormatTorch:
		header, err = torch.Decode(path, envconfig.MaxCheckpointSize(), visit)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("read model header", "path", path, "format", format, "tensors", tag.TensorCount, "dtype", tag.Dtype)
	return &tag, header, nil
}

func readSafetensors(path string, visit sdbxfs.Visitor) (*sdbxfs.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return safetensors.Decode(f, envconfig.MaxHeaderSize(), visit)
}

// sniffGGML gibt den ggml-Containertyp anhand des Magics zurueck, leer wenn
// die Datei keinem ggml-Format entspricht
func sniffGGML(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return ""
	}
	return ggml.DetectContentType(magic[:])
}

func readGGUF(path string, visit sdbxfs.Visitor) (*sdbxfs.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ggml.Decode(f, int(envconfig.MaxArraySize()))
	if err != nil {
		return nil, err
	}

	return g.Walk(visit), nil
}
