package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/annotator/internal/cli"
	"github.com/hyperjump/annotator/internal/export"
	"github.com/spf13/cobra"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var (
		schema string
		output string
	)
	cmd := &cobra.Command{
		Use:   "validate <file|dir>...",
		Short: "Check exported records against the record schema",
		Long: `Check exported record files against the basic or extended record schema.
Directories are searched recursively for .json files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			if schema == "" {
				cfg, _, err := loadConfig(opts.configPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				schema = cfg.Export.Schema
			}
			variant, err := export.ParseVariant(schema)
			if err != nil {
				return err
			}
			files, err := recordFiles(args)
			if err != nil {
				return err
			}

			results, invalid := validateFiles(files, variant)
			if err := cli.WriteValidationResults(cmd.OutOrStdout(), results, format); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d records invalid", invalid, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "record schema: basic or extended (default: export.schema from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func validateFiles(files []string, variant export.Variant) ([]cli.FileValidation, int) {
	results := make([]cli.FileValidation, 0, len(files))
	invalid := 0
	for _, f := range files {
		res := cli.FileValidation{Path: f, Valid: true}
		if err := export.ValidateFile(f, variant); err != nil {
			res.Valid = false
			res.Error = err.Error()
			invalid++
		}
		results = append(results, res)
	}
	return results, invalid
}

// recordFiles expands directories to the .json files below them, skipping
// in-progress temp files. Plain file arguments are kept as given.
func recordFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") || filepath.Ext(path) != ".json" {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
