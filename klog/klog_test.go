// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package klog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandleWritesOneLineWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Info("usb device attached", "vendor", "0x8086", "device", "0x7020")

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected line to end in newline, got %q", line)
	}
	if strings.Count(line, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", line)
	}
	if !strings.Contains(line, "usb device attached") {
		t.Fatalf("expected message in line, got %q", line)
	}
	if !strings.Contains(line, "vendor=0x8086") || !strings.Contains(line, "device=0x7020") {
		t.Fatalf("expected attrs folded into line, got %q", line)
	}
	if !strings.Contains(line, "INFO:") {
		t.Fatalf("expected level in line, got %q", line)
	}
}

func TestEnabledRespectsMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info below the warn threshold to be dropped, got %q", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Fatalf("expected warn at or above the threshold to be written")
	}
}

func TestMultipleHandleCallsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Info("first")
	logger.Info("second")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 distinct lines, got %d: %v", len(lines), lines)
	}
}
