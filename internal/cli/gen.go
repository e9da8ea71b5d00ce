package cli

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Chasungsoo/querydsl/internal/codegen"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	Out     string // output directory
	Package string // package clause; defaults to the output directory name

	// Fs receives the generated file.
	Fs afero.Fs
}

// GenResult describes a generated file.
type GenResult struct {
	Path     string   `json:"path"`
	Package  string   `json:"package"`
	Entities []string `json:"entities"`
	Results  []string `json:"results,omitempty"`
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts, Fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "gen <schema-dir>",
		Short: "Generate typed query paths from a CUE schema",
		Long: `Generate entity types, Q-types and projection constructors from the
CUE schema in <schema-dir>.

Examples:
  qdsl gen ./schema --out ./model
  qdsl gen ./schema --out . --package fixture`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name of the generated file")

	return cmd
}

var packageName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func runGen(opts *GenOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, loadErr := LoadSchema(schemaDir)
	if loadErr != nil {
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return NewExitError(ExitFailure, loadErr.Error())
	}
	formatter.VerboseLog("Loaded %d CUE file(s) from %s", loaded.FileCount, schemaDir)

	cfg := codegen.DefaultConfig()
	cfg.PackageName = opts.Package
	if cfg.PackageName == "" {
		cfg.PackageName = defaultPackage(opts.Out)
	}
	if !packageName.MatchString(cfg.PackageName) {
		_ = formatter.Error(ErrCodeGenerate, fmt.Sprintf("invalid package name %q", cfg.PackageName), nil)
		return NewExitError(ExitCommandError, "invalid package name")
	}

	path, err := codegen.WriteFile(opts.Fs, opts.Out, loaded.Registry, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeGenerate, err.Error(), nil)
		return WrapExitError(ExitFailure, "generate", err)
	}

	result := GenResult{Path: path, Package: cfg.PackageName}
	for _, e := range loaded.Registry.Entities() {
		result.Entities = append(result.Entities, e.Name)
	}
	for _, r := range loaded.Registry.ResultTypes() {
		result.Results = append(result.Results, r.Name)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.Passed("Generated %s (package %s, %d entities, %d result types)",
		path, cfg.PackageName, len(result.Entities), len(result.Results))
	return nil
}

// defaultPackage names the package after the output directory.
func defaultPackage(out string) string {
	abs, err := filepath.Abs(out)
	if err != nil {
		return codegen.DefaultConfig().PackageName
	}
	name := filepath.Base(abs)
	if !packageName.MatchString(name) {
		return codegen.DefaultConfig().PackageName
	}
	return name
}
