package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hyperjump/annotator/internal/app"
	"github.com/hyperjump/annotator/internal/cli"
	"github.com/hyperjump/annotator/internal/corpus"
	"github.com/spf13/cobra"
)

func newPreannotateCommand(opts *globalOptions) *cobra.Command {
	var (
		corpusName string
		parserType string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "preannotate <file>",
		Short: "Parse every document of a corpus file and write unreviewed records",
		Long: `Parse every document of a corpus file and write the parser's tags as
records under <output_dir>/<corpus>/<sha1>.json without review.

Supported inputs: plain text (one document per line), a JSON array of
{body, url, sha1} records, PDF, DOCX, XLSX, PPTX, ODP and ODS.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			rt, err := newCmdEnv(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			p, err := rt.newParser(parserType)
			if err != nil {
				return fmt.Errorf("failed to create parser: %w", err)
			}
			w, err := rt.newWriter()
			if err != nil {
				return err
			}
			docs, err := corpus.NewLoader(corpus.WithLogger(rt.logger)).LoadFile(args[0])
			if err != nil {
				return err
			}
			if corpusName == "" {
				corpusName = corpusNameFromPath(args[0])
			}

			results, err := app.Preannotate(cmd.Context(), p, w, corpusName, docs, rt.logger)
			if werr := cli.WritePreannotateResults(cmd.OutOrStdout(), results, format); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Err != "" {
					return fmt.Errorf("preannotation failed for some documents")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusName, "corpus", "", "corpus name (default: file base name)")
	cmd.Flags().StringVar(&parserType, "parser", "", "parser type override (http or mock)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

// corpusNameFromPath derives a corpus name from a file path.
func corpusNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
