package video

// BoxBlur applies a separable box blur of the given radius to an RGBA
// buffer, writing the result to dst. tmp must be at least len(src) bytes.
// Windows are clipped at the frame edges and averaged over the samples
// that fall inside, so a uniform field stays exactly uniform.
//
// dst may alias src.
func BoxBlur(dst, src, tmp []byte, w, h, radius int) {
	n := w * h * 4
	if n == 0 {
		return
	}
	if radius < 1 {
		copy(dst[:n], src[:n])
		return
	}

	// Horizontal pass: src -> tmp
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w; x++ {
			lo := maxInt(0, x-radius)
			hi := minInt(w-1, x+radius)
			count := hi - lo + 1
			var sr, sg, sb, sa int
			for xx := lo; xx <= hi; xx++ {
				o := row + xx*4
				sr += int(src[o])
				sg += int(src[o+1])
				sb += int(src[o+2])
				sa += int(src[o+3])
			}
			o := row + x*4
			tmp[o] = byte((sr + count/2) / count)
			tmp[o+1] = byte((sg + count/2) / count)
			tmp[o+2] = byte((sb + count/2) / count)
			tmp[o+3] = byte((sa + count/2) / count)
		}
	}

	// Vertical pass: tmp -> dst
	stride := w * 4
	for x := 0; x < w; x++ {
		col := x * 4
		for y := 0; y < h; y++ {
			lo := maxInt(0, y-radius)
			hi := minInt(h-1, y+radius)
			count := hi - lo + 1
			var sr, sg, sb, sa int
			for yy := lo; yy <= hi; yy++ {
				o := yy*stride + col
				sr += int(tmp[o])
				sg += int(tmp[o+1])
				sb += int(tmp[o+2])
				sa += int(tmp[o+3])
			}
			o := y*stride + col
			dst[o] = byte((sr + count/2) / count)
			dst[o+1] = byte((sg + count/2) / count)
			dst[o+2] = byte((sb + count/2) / count)
			dst[o+3] = byte((sa + count/2) / count)
		}
	}
}
