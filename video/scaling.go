package video

// Nearest-neighbor scaling used by the pixelate filter and background.
//
// Smoothing is disabled on both legs, so the downscale picks the source
// pixel under each destination pixel center and the upscale replicates each
// small pixel into a block.

// PixelGrid returns the downscaled size for a w×h frame and a block size:
// max(1, floor(dim/block)) on each axis.
func PixelGrid(w, h, block int) (tw, th int) {
	if block < 1 {
		block = 1
	}
	return maxInt(1, w/block), maxInt(1, h/block)
}

// DownscaleNearest samples src (w×h) into small (tw×th).
func DownscaleNearest(small, src []byte, w, h, tw, th int) {
	for ty := 0; ty < th; ty++ {
		sy := minInt(h-1, (2*ty+1)*h/(2*th))
		for tx := 0; tx < tw; tx++ {
			sx := minInt(w-1, (2*tx+1)*w/(2*tw))
			copy(small[(ty*tw+tx)*4:(ty*tw+tx)*4+4], src[(sy*w+sx)*4:(sy*w+sx)*4+4])
		}
	}
}

// UpscaleNearest replicates small (tw×th) over dst (w×h).
func UpscaleNearest(dst, small []byte, w, h, tw, th int) {
	for y := 0; y < h; y++ {
		ty := minInt(th-1, y*th/h)
		for x := 0; x < w; x++ {
			tx := minInt(tw-1, x*tw/w)
			copy(dst[(y*w+x)*4:(y*w+x)*4+4], small[(ty*tw+tx)*4:(ty*tw+tx)*4+4])
		}
	}
}

// Pixelate renders src into dst as a mosaic of block-sized cells, using
// bufs for the intermediate small image.
func Pixelate(dst, src []byte, w, h, block int, bufs *BufferSet) {
	tw, th := PixelGrid(w, h, block)
	small := bufs.Small(tw * th * 4)
	DownscaleNearest(small, src, w, h, tw, th)
	UpscaleNearest(dst, small, w, h, tw, th)
}
