// Package merge reassembles per-window transcript fragments into one
// chronologically ordered transcript by offsetting window-local timestamps
// with each window's global start.
//
// Known limitation: content transcribed twice inside overlap regions is
// kept as-is; no cross-correlation or boundary trimming is attempted.
package merge
