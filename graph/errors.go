// errors.go - Fehler-Typen des Graphen
//
// Enthaelt:
// - Sentinels fuer errors.Is
// - GraphError, CycleDetectedError, MissingPredecessorResultError
package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph             = errors.New("invalid graph")
	ErrCycleDetected            = errors.New("cycle detected")
	ErrMissingPredecessorResult = errors.New("missing predecessor result")
)

// GraphError fuer strukturelle Fehler wie doppelte Knoten-Ids
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

// CycleDetectedError nennt einen Zyklus; der erste Knoten steht am Ende erneut
type CycleDetectedError struct {
	Path []string
}

func (e *CycleDetectedError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycleDetected.Error()
	}
	return ErrCycleDetected.Error() + ": " + strings.Join(e.Path, " -> ")
}

func (e *CycleDetectedError) Unwrap() error { return ErrCycleDetected }

// MissingPredecessorResultError: Node wurde propagiert, bevor Predecessor
// ausgewertet war
type MissingPredecessorResultError struct {
	Node        string
	Predecessor string
}

func (e *MissingPredecessorResultError) Error() string {
	return fmt.Sprintf("%s: node %q has no result for predecessor %q", ErrMissingPredecessorResult, e.Node, e.Predecessor)
}

func (e *MissingPredecessorResultError) Unwrap() error { return ErrMissingPredecessorResult }
