package vocab

import "errors"

// ErrVocabularyLoad fuer fehlende oder fehlerhafte Kataloge
var ErrVocabularyLoad = errors.New("vocabulary load failed")

// VocabularyLoadError repraesentiert einen Fehler beim Laden des Katalogs
type VocabularyLoadError struct {
	Path string // leer bei Parse aus Bytes
	Err  error
}

// Error implementiert das error Interface
func (e *VocabularyLoadError) Error() string {
	if e.Path != "" {
		return "vocabulary " + e.Path + ": " + e.Err.Error()
	}
	return "vocabulary: " + e.Err.Error()
}

// Unwrap ermoeglicht errors.Is fuer ErrVocabularyLoad und den Ursprungsfehler
func (e *VocabularyLoadError) Unwrap() []error {
	return []error{ErrVocabularyLoad, e.Err}
}
