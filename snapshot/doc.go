// Package snapshot streams the rendered output to a relay room as a
// sequence of encoded still images.
//
// A Transport samples a FrameReader on a fixed timer (80ms by default),
// encodes the frame as a data URI and sends {"t":"f","room":...,"d":...}.
// When the channel already holds more than 1 MiB of unsent data the tick is
// skipped: congestion drops the newest frame rather than queueing it.
//
// The encoder is chosen once per stream. A caller-supplied higher
// efficiency encoder is used at quality 0.6 when it can encode a probe
// image; otherwise frames are JPEG at quality 0.7.
package snapshot
