// Package cli implements the sigitm command line.
//
// Exported tables go to stdout; logs, traces and status messages go to
// stderr so the output can be piped.
package cli
