// Package core holds the typed configuration shared across the service.
package core

import (
	"time"
)

type Config struct {
	Server  ServerConfig
	YTMusic YTMusicConfig
	Extract ExtractConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type YTMusicConfig struct {
	// Provider selects the metadata adapter from the registry.
	Provider string
	BaseURL  string
	Timeout  time.Duration
}

type ExtractConfig struct {
	PlayerEndpoint string
	YtdlpPath      string
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  25 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		YTMusic: YTMusicConfig{
			Provider: "innertube",
			BaseURL:  "https://music.youtube.com/youtubei/v1",
			Timeout:  15 * time.Second,
		},
		Extract: ExtractConfig{
			PlayerEndpoint: "https://music.youtube.com/youtubei/v1/player",
			YtdlpPath:      "yt-dlp",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
