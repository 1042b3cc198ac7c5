// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — tagged diagnostic lines on stderr
//
// Purpose:
//   - One line per event, "TAG: message", written straight to stderr.
//   - Used between runs and at startup/shutdown, never inside a measured
//     window.
//
// Notes:
//   - Report bodies go to stdout; everything here goes to stderr so the two
//     can be redirected separately.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "memlab/utils"

// DropError logs prefix and err. A nil err logs the prefix alone, which is
// how tagged one-word events are emitted.
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage logs a tagged message.
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
