package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hyperjump/annotator/internal/app"
	"github.com/hyperjump/annotator/internal/config"
	"github.com/hyperjump/annotator/internal/export"
	"github.com/hyperjump/annotator/internal/keyword"
	"github.com/hyperjump/annotator/internal/parser"
	"github.com/hyperjump/annotator/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/annotator/config.yaml"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "annotator",
		Short: "Review and correct TIMEX3 temporal expression annotations",
		Long: `annotator serves the review workspace for Japanese temporal expression
annotations. A corpus is loaded, each document is parsed by the TIMEX3
parser, a reviewer corrects the tags, and the result is written as one
JSON record per document.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newPreannotateCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "annotator version %s\n", version)
		},
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence, and a missing default file yields the
// built-in defaults. Returns the config and the path that was actually loaded
// ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// cmdEnv is the configuration and logger a subcommand runs with.
type cmdEnv struct {
	cfg        *config.Config
	configPath string
	debug      bool
	logger     *zap.Logger
}

func newCmdEnv(opts *globalOptions) (*cmdEnv, error) {
	cfg, resolved, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &cmdEnv{cfg: cfg, configPath: resolved, debug: debug, logger: logger}, nil
}

// newParser builds the configured parser. A non-empty override replaces the
// configured parser type.
func (rt *cmdEnv) newParser(override string) (parser.Parser, error) {
	pc := rt.cfg.Parser
	if override != "" {
		pc.Type = override
	}
	return parser.New(&pc, rt.logger)
}

func (rt *cmdEnv) newWriter() (*export.Writer, error) {
	variant, err := export.ParseVariant(rt.cfg.Export.Schema)
	if err != nil {
		return nil, err
	}
	return export.NewWriter(rt.cfg.Export.OutputDir, variant, export.WithLogger(rt.logger)), nil
}

func (rt *cmdEnv) newAnnotator(parserOverride string) (*app.Annotator, error) {
	p, err := rt.newParser(parserOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	w, err := rt.newWriter()
	if err != nil {
		return nil, err
	}
	return app.New(p, w,
		app.WithLogger(rt.logger),
		app.WithDefaultCorpus(rt.cfg.Export.Corpus),
		app.WithPhraseBoost(rt.cfg.Search.PhraseBoost),
		app.WithFuzziness(rt.cfg.Search.Fuzziness),
		app.WithSuggesterOptions(
			keyword.WithMaxDistance(rt.cfg.Search.SuggestMaxDistance),
			keyword.WithMinFrequency(rt.cfg.Search.SuggestMinFrequency),
		),
	), nil
}
