package logger

import (
	"testing"

	"github.com/mosefak/medchat/internal/config"
)

func TestNewLoggerDefaults(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "debug", Format: "json", Output: "stdout"}
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log == nil {
		t.Fatal("NewLogger returned nil logger")
	}
}

func TestWithRequestFields(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"}
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	entry := WithRequest(log, "t42", "u7")
	if entry.Data["thread_id"] != "t42" || entry.Data["user_id"] != "u7" {
		t.Errorf("WithRequest fields = %v", entry.Data)
	}
}
