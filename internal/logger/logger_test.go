package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// SetupがJSON形式のログを出力することを検証
func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	l.Info("貸出を作成しました", slog.String("loan_id", "loan-1"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	if entry["msg"] != "貸出を作成しました" {
		t.Errorf("msg = %q, want %q", entry["msg"], "貸出を作成しました")
	}
	if entry["loan_id"] != "loan-1" {
		t.Errorf("loan_id = %q, want %q", entry["loan_id"], "loan-1")
	}
}

// time/levelの標準フィールドが含まれることを検証
func TestSetup_IncludesStandardFields(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Warn("延滞を検出しました")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want %q", entry["level"], "WARN")
	}
}

// 指定レベル未満のログが抑制されることを検証
func TestSetup_SuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("これは出力されない")

	if buf.Len() != 0 {
		t.Errorf("infoログはwarnレベルでは抑制されるべき: %s", buf.String())
	}
}

// 複数属性が構造化されて出力されることを検証
func TestSetup_MultipleAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("延滞スキャン完了",
		slog.String("book_id", "b-123"),
		slog.String("reader_id", "r-456"),
		slog.Int("overdue_count", 3),
		slog.Int64("duration_ms", 42),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if entry["book_id"] != "b-123" {
		t.Errorf("book_id = %q, want %q", entry["book_id"], "b-123")
	}
	if entry["reader_id"] != "r-456" {
		t.Errorf("reader_id = %q, want %q", entry["reader_id"], "r-456")
	}
	if entry["overdue_count"] != float64(3) {
		t.Errorf("overdue_count = %v, want %v", entry["overdue_count"], 3)
	}
	if entry["duration_ms"] != float64(42) {
		t.Errorf("duration_ms = %v, want %v", entry["duration_ms"], 42)
	}
}

// SetupDefaultがグローバルロガーを設定することを検証
func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Info("global test", slog.String("test_key", "test_val"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v\nraw: %s", err, buf.String())
	}

	if entry["msg"] != "global test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "global test")
	}
	if entry["test_key"] != "test_val" {
		t.Errorf("test_key = %q, want %q", entry["test_key"], "test_val")
	}
}

// LOG_LEVEL環境変数でレベルが切り替わることを検証
func TestSetupDefault_LogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Debug("debug有効")

	if buf.Len() == 0 {
		t.Error("LOG_LEVEL=debugのときdebugログは出力されるべき")
	}
}
