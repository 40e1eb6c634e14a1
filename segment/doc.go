// Package segment drives a four-digit multiplexed seven-segment
// display from a pair of timer interrupt handlers, with double-buffered
// frame updates so foreground writes never tear a refresh in progress.
package segment
