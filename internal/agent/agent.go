// Package agent defines the uniform contract every checking agent satisfies
// and the input validation all agents share.
package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/enforcerd/internal/violation"
)

// Validation errors shared by all agents.
var (
	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("invalid agent input")

	// ErrUnsupportedFile indicates the agent does not handle the file's
	// extension. Agents reject mismatched files instead of attempting
	// partial analysis.
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// Metadata describes an agent. Name is the unique registry key and the
// authoritative source for applicability decisions.
type Metadata struct {
	Name                string   `json:"name"`
	DisplayName         string   `json:"display_name"`
	Description         string   `json:"description"`
	SupportedExtensions []string `json:"supported_extensions"`
}

// Supports reports whether the agent handles the file's extension,
// case-insensitively.
func (m Metadata) Supports(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, s := range m.SupportedExtensions {
		if ext == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// Input is the execution request handed to an agent.
type Input struct {
	// FilePath identifies the file under analysis. Required, non-empty.
	FilePath string

	// Code is the file's source text. Agents analyze this snapshot, not
	// the filesystem.
	Code string

	// Options carries adapter-specific tuning, e.g. a coverage threshold.
	Options map[string]any
}

// Validate fails fast on malformed input before any analysis runs.
func (in Input) Validate() error {
	if strings.TrimSpace(in.FilePath) == "" {
		return fmt.Errorf("%w: file_path is required", ErrValidation)
	}
	return nil
}

// Agent is the common execute contract. Execute returns a Result whose
// summary always reconciles with its violations; an error return means the
// agent could not analyze at all (bad input, tool failure), never a partial
// result.
type Agent interface {
	Metadata() Metadata
	Execute(ctx context.Context, in Input) (*violation.Result, error)
}

// CheckInput validates the input and the file-type match for md.
// Concrete agents call this first in Execute.
func CheckInput(md Metadata, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if !md.Supports(in.FilePath) {
		return fmt.Errorf("%w: %s does not handle %q", ErrUnsupportedFile, md.Name, filepath.Ext(in.FilePath))
	}
	return nil
}

// IntOption reads an integer option, accepting the numeric types JSON
// decoding produces. Returns fallback when absent.
func IntOption(opts map[string]any, key string, fallback int) (int, error) {
	raw, ok := opts[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: option %q must be a number, got %T", ErrValidation, key, raw)
	}
}
