// Package video implements the livehost frame processing pipeline.
//
// Frames are RGBA buffers with 8 bits per channel. A raw camera frame is
// processed by an Engine into a stylized frame and merged over a chosen
// background by a Compositor, optionally through a person-segmentation
// Mask:
//
//	raw ──► Engine.Process ──► processed
//	raw ──► Compositor.DrawBackground ──► dst
//	                 processed + mask ──► Compositor.Composite ──► dst
//
// # Filters
//
// Each FilterKind expands to an EffectChain built by BuildChain. The
// stylized-edge filter (FilterAnime) runs posterize, contrast and
// saturation, Sobel edge detection with one round of 3x3 dilation, near
// black inking of the dilated edges and finally a soft glow:
//
//	chain := video.BuildChain(video.FilterAnime, 75)
//	fmt.Println(chain.Names())
//
// All channel arithmetic stores clamped, rounded bytes between steps.
//
// # Buffer Reuse
//
// Intermediate planes live in a BufferSet that is reallocated only when the
// frame dimensions change:
//
//	engine := video.NewEngine(nil)
//	out, ok := engine.Process(raw, video.DefaultConfig())
//	if !ok {
//	    // zero-area frame, try again next tick
//	}
//
// Engine and Compositor are single-goroutine types. The frame returned by
// Process is owned by the engine and overwritten by the next call.
//
// # Open Question
//
// The gray filter uses 0.3/0.59/0.11 luma weights while the gray background
// and the edge detector use 0.299/0.587/0.114. Both are kept as is.
package video
