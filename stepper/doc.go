// Package stepper drives a four-phase stepper motor from a periodic
// timer interrupt, pacing a signed step target one step per tick.
package stepper
