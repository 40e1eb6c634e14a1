// Package rotary decodes a quadrature rotary encoder with a push
// button. Interrupt handlers accumulate movement and presses; the
// foreground reads both with read-and-clear accessors, so every detent
// and press is observed exactly once.
package rotary
