package utils

import "testing"

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("logger initialized")
	_ = logger.Sync()
}
