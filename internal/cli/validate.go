package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Chasungsoo/querydsl/internal/codegen"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
)

// ValidationIssue is one schema problem.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// EntitySummary describes a valid entity.
type EntitySummary struct {
	Name      string `json:"name"`
	Table     string `json:"table"`
	Columns   int    `json:"columns"`
	Relations int    `json:"relations"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Entities []EntitySummary   `json:"entities,omitempty"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate a CUE schema without generating code",
		Long: `Validate the CUE schema in <schema-dir>.

Checks CUE syntax, entity and relation declarations and that every name
can be generated, without writing any file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, loadErr := LoadSchema(schemaDir)
	if loadErr != nil {
		switch loadErr.Code {
		case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			// Missing input is a command error (exit code 2)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
		}
		return outputValidationErrors(formatter, []ValidationIssue{{
			Code:    loadErr.Code,
			Message: loadErr.Message,
			Line:    loadErr.Line(),
		}})
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, schemaDir)

	if _, err := codegen.Generate(loaded.Registry, codegen.DefaultConfig()); err != nil {
		return outputValidationErrors(formatter, []ValidationIssue{{Code: ErrCodeGenerate, Message: err.Error()}})
	}

	result := ValidationResult{Valid: true, Entities: summarize(loaded.Registry)}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	for _, e := range result.Entities {
		formatter.VerboseLog("%s (table %s): %d columns, %d relations", e.Name, e.Table, e.Columns, e.Relations)
	}
	formatter.Passed("Schema valid (%d entities)", len(result.Entities))
	return nil
}

func summarize(reg *metamodel.Registry) []EntitySummary {
	var out []EntitySummary
	for _, e := range reg.Entities() {
		out = append(out, EntitySummary{
			Name:      e.Name,
			Table:     e.Table,
			Columns:   len(e.Columns),
			Relations: len(e.Relations),
		})
	}
	return out
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationIssue) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	formatter.Failed("Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
