package snapshot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// Encoding qualities on a 0..1 scale.
const (
	PreferredQuality = 0.6
	FallbackQuality  = 0.7
)

// ImageEncoder writes an image in one lossy format.
type ImageEncoder interface {
	// MIMEType is the data URI media type, e.g. "image/webp".
	MIMEType() string
	// Encode writes img at a quality in [0,1].
	Encode(w io.Writer, img image.Image, quality float64) error
}

// JPEGEncoder is the universally supported fallback format.
type JPEGEncoder struct{}

// MIMEType implements ImageEncoder.
func (JPEGEncoder) MIMEType() string { return "image/jpeg" }

// Encode implements ImageEncoder.
func (JPEGEncoder) Encode(w io.Writer, img image.Image, quality float64) error {
	q := int(quality*100 + 0.5)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
}

// Codec is an encoder bound to the quality it should be used at.
type Codec struct {
	Encoder ImageEncoder
	Quality float64
}

// MIMEType returns the codec's media type.
func (c Codec) MIMEType() string {
	return c.Encoder.MIMEType()
}

// ChooseCodec returns preferred at PreferredQuality when it is non-nil and
// can encode a probe image, otherwise JPEG at FallbackQuality.
func ChooseCodec(preferred ImageEncoder) Codec {
	if preferred != nil && probe(preferred) {
		return Codec{Encoder: preferred, Quality: PreferredQuality}
	}
	return Codec{Encoder: JPEGEncoder{}, Quality: FallbackQuality}
}

func probe(enc ImageEncoder) bool {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := enc.Encode(&buf, img, PreferredQuality); err != nil {
		return false
	}
	return buf.Len() > 0
}

// DataURI encodes img as a base64 data URI.
func (c Codec) DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := c.Encoder.Encode(&buf, img, c.Quality); err != nil {
		return "", fmt.Errorf("encode %s: %w", c.MIMEType(), err)
	}
	return DataURI(c.MIMEType(), buf.Bytes()), nil
}

// DataURI formats raw bytes as data:<mime>;base64,<payload>.
func DataURI(mime string, data []byte) string {
	prefix := "data:" + mime + ";base64,"
	out := make([]byte, len(prefix)+base64.StdEncoding.EncodedLen(len(data)))
	copy(out, prefix)
	base64.StdEncoding.Encode(out[len(prefix):], data)
	return string(out)
}
