// Package render drives the per-frame pipeline: it polls a Source, runs
// the video engine and compositor and publishes the result to a Surface
// that transports read from.
package render
