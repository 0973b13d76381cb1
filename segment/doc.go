// Package segment connects an asynchronous segmentation model to the
// render loop.
//
// Masks flow through a Cell, a last-write-wins slot that the render loop
// reads once per tick without waiting. Requests to the model are rate
// limited by a Throttle, 60ms by default:
//
//	cell := &segment.Cell{}
//	segment.Bind(provider, cell)
//	if throttle.Allow() {
//	    provider.Submit(raw)
//	}
//	mask := cell.Load() // may be nil or stale
package segment
