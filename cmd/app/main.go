package main

import (
	"Focus2026/internal/config"
	"Focus2026/pkg/audio"
	"Focus2026/pkg/bcrypt"
	"Focus2026/pkg/gemini"
	"Focus2026/pkg/log"
	"Focus2026/pkg/redis"
	"Focus2026/pkg/roadmap"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "focus",
		Short:         "Focus2026 dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			envErr := godotenv.Load()
			logger := log.NewLogger()
			if envErr != nil {
				logger.Warnf("No .env file loaded: %v", envErr)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newDevotionalCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newHashCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func newDevotionalCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "devotional",
		Short: "Print today's devotional",
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := newServer(false)
			if err != nil {
				return err
			}
			defer release(server)

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			res, err := server.Dashboard().GenerateDevotional(ctx, refresh)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Devotional)
			return err
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass today's cached devotional")
	return cmd
}

func newReportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the spoken progress report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := newServer(false)
			if err != nil {
				return err
			}
			defer release(server)

			ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
			defer cancel()

			dashboard := server.Dashboard()
			if err := dashboard.Seed(ctx); err != nil {
				return err
			}

			res, err := dashboard.GenerateProgressReport(ctx)
			if err != nil {
				return err
			}
			if res.Fallback {
				return errors.New(res.Message)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d%% complete, %d deep work sessions, %.1fs of audio\n", res.ProgressPercent, res.DeepWorkSessions, res.Duration)
			if res.AudioURL != "" {
				fmt.Fprintln(w, res.AudioURL)
			}
			if out == "" {
				return nil
			}

			pcm, err := audio.Decode(res.Audio)
			if err != nil {
				return err
			}
			return os.WriteFile(out, audio.EncodeWAV(pcm, res.SampleRate, 1), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report as a WAV file")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passphrase <passphrase>",
		Short: "Print a bcrypt hash for DASHBOARD_PASSPHRASE_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.New().HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

func newServer(withHTTPBackends bool) (*config.Server, error) {
	logger := log.NewLogger()

	rm, err := roadmap.Load()
	if err != nil {
		return nil, err
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger)),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithRoadmap(rm),
		config.WithDatabase(),
		config.WithGeminiClient(gemini.NewGeminiClient(gemini.ConfigFromEnv())),
		config.WithS3Client(),
		config.WithMiddleware(),
		config.WithBcryptUtils(),
		config.WithUtils(),
	}
	if redis.Configured() {
		options = append(options, config.WithRedisServer(redis.New()))
	}
	if withHTTPBackends {
		options = append(options, config.WithWhatsappClient())
	}

	return config.NewServer(options...)
}

// release closes the backends a one-shot command opened.
func release(server *config.Server) {
	if err := server.Shutdown(5 * time.Second); err != nil {
		log.NewLogger().WithFields(logrus.Fields{"error": err.Error()}).Warn("Failed to release server resources")
	}
}

func serve() error {
	server, err := newServer(true)
	if err != nil {
		return err
	}
	logger := log.NewLogger()

	if err := server.RegisterHandler(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	logger.Info("Server started successfully")

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
	}

	logger.Info("Shutting down server...")
	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.WithFields(logrus.Fields{"error": err.Error()}).Error("Shutdown failed")
		return err
	}
	return nil
}
