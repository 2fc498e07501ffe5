package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/johncui/vega/pkg/config"
	"github.com/johncui/vega/pkg/listen"
)

var (
	listenAddr string
	transcript string
	noListen   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant: transcript listener plus HTTP control surface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := loadSettings()
		if cmd.Flags().Changed("addr") {
			s.Server.ListenAddr = listenAddr
		}
		if cmd.Flags().Changed("transcript") {
			s.Server.TranscriptSource = transcript
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		a, err := newAssistant(ctx, s, cancel)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := &http.Server{
			Addr:              s.Server.ListenAddr,
			Handler:           newRouter(a, &s),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("starting vega server", "addr", srv.Addr, "db", s.Memory.DBPath, "vss", s.Memory.EnableVSS)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		if !noListen {
			g.Go(func() error {
				l := listen.New(listen.Options{Source: s.Server.TranscriptSource, Logger: logger})
				// the HTTP surface stays up when the listener cannot start
				if err := l.Run(gctx, func(ctx context.Context, text string) { a.engine.Handle(ctx, text) }); err != nil {
					logger.Error("listener stopped", "err", err)
				}
				return nil
			})
		}
		g.Go(func() error {
			err := config.Watch(gctx, settingsPath, logger, func(next config.Settings) {
				a.engine.SetModels(next.TextModel, next.VisionModel)
			})
			if err != nil {
				logger.Warn("settings watcher not running", "err", err)
			}
			return nil
		})

		err = g.Wait()
		logger.Info("goodbye")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().StringVar(&transcript, "transcript", listen.Stdin, "Transcript source: file, FIFO or - for stdin")
	serveCmd.Flags().BoolVar(&noListen, "no-listen", false, "Disable the transcript listener")
	rootCmd.AddCommand(serveCmd)
}
