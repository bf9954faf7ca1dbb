package core

import "testing"

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.Server.Port)
	}

	if config.YTMusic.Provider != "innertube" {
		t.Errorf("Expected default provider innertube, got %s", config.YTMusic.Provider)
	}

	if config.YTMusic.Timeout <= 0 {
		t.Error("Upstream calls must carry an explicit timeout")
	}

	if config.Server.RequestTimeout <= 0 {
		t.Error("Requests must carry an explicit timeout")
	}

	if config.Extract.YtdlpPath == "" {
		t.Error("Expected a default yt-dlp path")
	}

	if config.Log.Level != "info" || config.Log.Format != "json" {
		t.Errorf("Unexpected log defaults: %s/%s", config.Log.Level, config.Log.Format)
	}
}
