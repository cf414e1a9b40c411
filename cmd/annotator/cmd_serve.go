package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hyperjump/annotator/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		parserType string
		corpusFile string
		port       int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the review HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newCmdEnv(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()
			if port > 0 {
				rt.cfg.Server.Port = port
			}
			rt.logger.Info("config loaded",
				zap.String("config_path", rt.configPath),
				zap.Bool("debug", rt.debug),
			)

			annotator, err := rt.newAnnotator(parserType)
			if err != nil {
				return err
			}
			if corpusFile != "" {
				info, err := annotator.LoadFile(corpusFile, "")
				if err != nil {
					return err
				}
				rt.logger.Info("corpus loaded", zap.String("corpus", info.Name), zap.Int("documents", info.Documents))
			}

			srv := server.NewServer(annotator, rt.cfg, rt.logger)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}

			rt.logger.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
	cmd.Flags().StringVar(&parserType, "parser", "", "parser type override (http or mock)")
	cmd.Flags().StringVar(&corpusFile, "corpus", "", "corpus file to load at startup")
	cmd.Flags().IntVar(&port, "port", 0, "listen port override")
	return cmd
}
