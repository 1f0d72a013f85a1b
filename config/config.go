// Multiboot command line parsing
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config parses the Multiboot command line string into typed
// boot options (spec.md §4.13). There is no argv in a freestanding
// kernel, only this one string, so a hand-rolled key=value tokenizer
// does the job a flag-parsing library would otherwise do.
package config

import (
	"log/slog"
	"strconv"
	"strings"
)

// VESAMode is an explicit framebuffer mode requested on the command
// line, overriding whatever mode Multiboot reports.
type VESAMode struct {
	Width, Height, BPP uint32
}

// BootOptions is the parsed result of the Multiboot command line.
type BootOptions struct {
	LogLevel     slog.Level
	VESAOverride *VESAMode
	SafeMode     bool
}

// defaultLogLevel is used when the command line carries no log= token.
const defaultLogLevel = slog.LevelInfo

// Parse tokenizes the Multiboot command line on whitespace and each
// token on its first '=', recognizing:
//
//	log=<debug|info|warn|error>   sets LogLevel
//	vesa=<WxHxBPP>                sets VESAOverride
//	safemode                      sets SafeMode (value-less flag)
//
// Unrecognized tokens are ignored rather than rejected, since a boot
// command line may legitimately carry options other software understands
// (spec.md §7 "ignore unknown input rather than fail the boot").
func Parse(cmdline string) BootOptions {
	opts := BootOptions{LogLevel: defaultLogLevel}

	for _, tok := range strings.Fields(cmdline) {
		key, value, hasValue := strings.Cut(tok, "=")

		switch key {
		case "log":
			if hasValue {
				opts.LogLevel = parseLogLevel(value)
			}
		case "vesa":
			if hasValue {
				if mode, ok := parseVESAMode(value); ok {
					opts.VESAOverride = &mode
				}
			}
		case "safemode":
			opts.SafeMode = true
		}
	}

	return opts
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseVESAMode parses a "WxHxBPP" token, e.g. "1024x768x32".
func parseVESAMode(s string) (VESAMode, bool) {
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return VESAMode{}, false
	}

	w, err1 := strconv.ParseUint(parts[0], 10, 32)
	h, err2 := strconv.ParseUint(parts[1], 10, 32)
	bpp, err3 := strconv.ParseUint(parts[2], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return VESAMode{}, false
	}

	return VESAMode{Width: uint32(w), Height: uint32(h), BPP: uint32(bpp)}, true
}
