// ════════════════════════════════════════════════════════════════════════════════════════════════
// Cold-Path Formatting Utilities
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Integer Formatting & Direct Stderr Output
//
// Description:
//   Small helpers for log lines built by string concatenation. Nothing here
//   runs inside a measured window.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package utils

import (
	"os"
	"strconv"
	"time"
)

// Itoa formats a signed integer in base 10.
func Itoa(n int) string { return strconv.Itoa(n) }

// Utoa formats an unsigned 64-bit integer in base 10.
func Utoa(n uint64) string { return strconv.FormatUint(n, 10) }

// Seconds formats d as seconds with millisecond precision, e.g. "1.234s".
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64) + "s"
}

// PrintWarning writes msg to stderr unbuffered. Write errors are ignored:
// there is nowhere left to report them.
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}
