// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"testing"
)

func TestParseDefaultsToInfoLevel(t *testing.T) {
	opts := Parse("")
	if opts.LogLevel != slog.LevelInfo {
		t.Fatalf("expected default level info, got %v", opts.LogLevel)
	}
	if opts.SafeMode {
		t.Fatalf("expected safe mode off by default")
	}
	if opts.VESAOverride != nil {
		t.Fatalf("expected no vesa override by default")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"log=debug":   slog.LevelDebug,
		"log=info":    slog.LevelInfo,
		"log=warn":    slog.LevelWarn,
		"log=warning": slog.LevelWarn,
		"log=error":   slog.LevelError,
		"log=bogus":   slog.LevelInfo,
	}
	for cmdline, want := range cases {
		if got := Parse(cmdline).LogLevel; got != want {
			t.Fatalf("Parse(%q).LogLevel = %v, want %v", cmdline, got, want)
		}
	}
}

func TestParseVESAOverride(t *testing.T) {
	opts := Parse("root=/dev/sda1 vesa=1024x768x32 quiet")
	if opts.VESAOverride == nil {
		t.Fatalf("expected a vesa override")
	}
	want := VESAMode{Width: 1024, Height: 768, BPP: 32}
	if *opts.VESAOverride != want {
		t.Fatalf("expected %+v, got %+v", want, *opts.VESAOverride)
	}
}

func TestParseVESAOverrideIgnoredWhenMalformed(t *testing.T) {
	opts := Parse("vesa=notamode")
	if opts.VESAOverride != nil {
		t.Fatalf("expected malformed vesa token to be ignored, got %+v", opts.VESAOverride)
	}
}

func TestParseSafeModeFlag(t *testing.T) {
	opts := Parse("log=debug safemode")
	if !opts.SafeMode {
		t.Fatalf("expected safemode to be set")
	}
}

func TestParseIgnoresUnknownTokens(t *testing.T) {
	opts := Parse("console=ttyS0 root=/dev/sda1 nosmp")
	if opts.LogLevel != slog.LevelInfo || opts.SafeMode || opts.VESAOverride != nil {
		t.Fatalf("expected unknown tokens to leave defaults untouched, got %+v", opts)
	}
}

func TestParseWholeCommandLine(t *testing.T) {
	opts := Parse("log=warn vesa=800x600x24 safemode extra=ignored")
	if opts.LogLevel != slog.LevelWarn {
		t.Fatalf("expected warn level, got %v", opts.LogLevel)
	}
	if !opts.SafeMode {
		t.Fatalf("expected safe mode set")
	}
	if opts.VESAOverride == nil || *opts.VESAOverride != (VESAMode{800, 600, 24}) {
		t.Fatalf("expected vesa override 800x600x24, got %+v", opts.VESAOverride)
	}
}
