// Package main provides the ytmbridge CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"ytmbridge/internal/core"
	"ytmbridge/internal/httpapi"
	"ytmbridge/internal/ytmusic"
	"ytmbridge/pkg/extract"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ytmbridge",
	Short: "ytmbridge - stateless YouTube Music metadata and stream proxy",
	Long: `ytmbridge is a stateless HTTP service that fronts YouTube Music: search,
albums, artists, playlists, lyrics, recommendations, trending and autocomplete
as normalized JSON, plus direct stream URL extraction with a fallback chain.`,
	RunE: runServer,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server bind host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Duration("request-timeout", 25*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().String("ytmusic-provider", "innertube", "metadata provider")
	rootCmd.PersistentFlags().String("ytmusic-base-url", "", "metadata API base URL override")
	rootCmd.PersistentFlags().Duration("ytmusic-timeout", 15*time.Second, "metadata API timeout")
	rootCmd.PersistentFlags().String("player-endpoint", "", "player API endpoint override")
	rootCmd.PersistentFlags().String("ytdlp-path", "yt-dlp", "yt-dlp binary for fallback extraction")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("YTMBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(&config.Log)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	if v := viper.GetString("server-host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetInt("server-port"); v != 0 {
		cfg.Server.Port = v
	}
	if v := viper.GetDuration("request-timeout"); v != 0 {
		cfg.Server.RequestTimeout = v
	}

	if v := viper.GetString("ytmusic-provider"); v != "" {
		cfg.YTMusic.Provider = v
	}
	if v := viper.GetString("ytmusic-base-url"); v != "" {
		cfg.YTMusic.BaseURL = v
	}
	if v := viper.GetDuration("ytmusic-timeout"); v != 0 {
		cfg.YTMusic.Timeout = v
	}

	if v := viper.GetString("player-endpoint"); v != "" {
		cfg.Extract.PlayerEndpoint = v
	}
	if v := viper.GetString("ytdlp-path"); v != "" {
		cfg.Extract.YtdlpPath = v
	}

	cfg.Log.Level = viper.GetString("log-level")
	if v := viper.GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}

	return cfg
}

func buildLogger(logCfg *core.LogConfig) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(logCfg.Level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if strings.ToLower(logCfg.Format) == "console" {
		cfg.Encoding = "console"
	}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runServer(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting ytmbridge",
		zap.String("provider", config.YTMusic.Provider),
		zap.String("ytdlp_path", config.Extract.YtdlpPath))

	providers := ytmusic.NewHandle(&config.YTMusic, logger.Named("ytmusic"))

	chain := extract.NewChain(
		extract.NewPlayerSource(config.Extract.PlayerEndpoint, logger.Named("player")),
		extract.NewYtdlpSource(config.Extract.YtdlpPath, logger.Named("ytdlp")),
		logger.Named("extract"),
	)

	server := httpapi.NewServer(&config.Server, logger.Named("http"), providers, chain)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gCtx)
	})

	logger.Info("ytmbridge started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("ytmbridge stopped with error", zap.Error(err))
		return err
	}

	logger.Info("ytmbridge stopped gracefully")
	return nil
}
