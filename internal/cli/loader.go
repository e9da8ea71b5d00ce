package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/Chasungsoo/querydsl/internal/metamodel"
)

// LoadResult contains a compiled schema directory.
type LoadResult struct {
	Registry  *metamodel.Registry
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadSchema loads and compiles the CUE schema of a directory.
func LoadSchema(dir string) (*LoadResult, *LoadError) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	reg, err := metamodel.LoadDir(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Registry: reg, FileCount: len(cueFiles)}, nil
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}

// convertCompileError converts a schema error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *metamodel.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // Schema does not form a valid registry
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeConfig       = "E008" // Configuration error
	ErrCodeUnknownQuery = "E009" // Query not in the catalog

	// Schema errors
	ErrCodeEntity   = "E101" // Invalid or missing entity declaration
	ErrCodeColumns  = "E102" // Entity without columns
	ErrCodeType     = "E103" // Missing or unsupported column type
	ErrCodeRelation = "E104" // Invalid relation
	ErrCodeResult   = "E105" // Invalid result type

	// Generation errors
	ErrCodeGenerate = "E201" // Code generation failed
	// Query errors
	ErrCodeQuery = "E301" // Query failed to build or translate
)

// MapFieldToErrorCode maps a schema error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeLoadFailed
	case "entity":
		return ErrCodeEntity
	case "columns":
		return ErrCodeColumns
	case "type":
		return ErrCodeType
	case "target", "relation", "relations":
		return ErrCodeRelation
	case "result":
		return ErrCodeResult
	default:
		return ErrCodeGeneric
	}
}
