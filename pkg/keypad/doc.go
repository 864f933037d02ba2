// Package keypad debounces a 4x4 matrix keypad into key events.
package keypad

// The engine samples the matrix on a fixed cadence and feeds every
// sample through a two-part debounce gate: a raw reading must hold for
// a minimum number of consecutive samples AND for a minimum elapsed
// time before it becomes a state change. Confirmed changes are queued
// and optionally delivered to a callback; holding a key past the
// long-press threshold raises a second, one-shot event.
