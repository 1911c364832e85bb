package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewTagsAppAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "coinledger")

	logger.Info("dropped")
	logger.Warn("kept", "transaction_id", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["app"] != "coinledger" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "loud", "")

	logger.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info, got %q", buf.String())
	}
	logger.Info("kept")
	if buf.Len() == 0 {
		t.Fatalf("info should be written")
	}
}
