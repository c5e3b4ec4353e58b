// @lixen: #focus{sys[term,input]}
// Package terminal decodes raw terminal input into logical keys.
//
// Features:
//   - One-key-per-call decoder with a persistent pending buffer
//   - VT/xterm escape sequence table (arrows, Home/End, Insert/Delete, paging, Ctrl/Alt arrows)
//   - In-band cursor position reports (ESC [ row ; col R)
//   - poll(2) and serial-line input sources
//   - Raw/cbreak mode switching, size queries, minimal escape output
//
// The decoder never reads ahead past the key it returns, so text pasted after a
// plain key is left in the stream untouched.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
