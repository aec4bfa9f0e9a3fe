// config_features.go - Limits und Parallelitaets-Einstellungen
//
// Dieses Modul enthaelt:
// - Header-Limits fuer den Container-Parser
// - Parallelitaet fuer Verzeichnis-Scans und Klassifikation
package envconfig

import "runtime"

// =============================================================================
// Parser-Limits
// =============================================================================

var (
	// MaxHeaderSize begrenzt die Groesse eines Safetensors-Headers in Bytes
	// Konfigurierbar via SDBX_MAX_HEADER_SIZE
	MaxHeaderSize = Uint64("SDBX_MAX_HEADER_SIZE", 100<<20)

	// MaxArraySize begrenzt die Anzahl gespeicherter Array-Werte pro GGUF-KV
	// Konfigurierbar via SDBX_MAX_ARRAY_SIZE
	MaxArraySize = Uint("SDBX_MAX_ARRAY_SIZE", 1024)

	// MaxCheckpointSize begrenzt PyTorch-Checkpoints, die zum Lesen der
	// Tensor-Deskriptoren komplett geladen werden muessen
	// Konfigurierbar via SDBX_MAX_CHECKPOINT_SIZE
	MaxCheckpointSize = Uint64("SDBX_MAX_CHECKPOINT_SIZE", 4<<30)
)

// =============================================================================
// Parallelitaet
// =============================================================================

var (
	// ScanParallel setzt die Anzahl paralleler Klassifikationen
	// Konfigurierbar via SDBX_SCAN_PARALLEL
	ScanParallel = Uint("SDBX_SCAN_PARALLEL", uint(runtime.NumCPU()))
)
