package segment

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/video"
)

// Provider is an asynchronous person-segmentation model.
//
// Submit is fire-and-forget and must not block the caller. Masks are
// delivered to the callback registered with OnResult, from any goroutine,
// with unbounded latency and in any order relative to submission.
type Provider interface {
	Submit(frame *video.Frame)
	OnResult(fn func(*video.Mask))
}

// Bind routes every result of p into cell.
func Bind(p Provider, cell *Cell) {
	p.OnResult(cell.Store)
}

// OvalProvider is a stand-in segmentation model that marks a centered
// ellipse as foreground. It runs on its own goroutine and keeps only the
// newest pending request, so a slow model drops intermediate frames.
type OvalProvider struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  bool
	width    int
	height   int
	closed   bool
	onResult func(*video.Mask)
	done     chan struct{}
	logger   *logrus.Entry
}

// NewOvalProvider starts the provider goroutine. Call Close to stop it.
func NewOvalProvider(logger *logrus.Entry) *OvalProvider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	p := &OvalProvider{done: make(chan struct{}), logger: logger}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// OnResult registers the result callback. Only the last registration is kept.
func (p *OvalProvider) OnResult(fn func(*video.Mask)) {
	p.mu.Lock()
	p.onResult = fn
	p.mu.Unlock()
}

// Submit queues a request for a frame of the given size. Only the frame
// dimensions are read, so the caller may reuse frame immediately.
func (p *OvalProvider) Submit(frame *video.Frame) {
	if frame.Empty() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.width, p.height = frame.Width, frame.Height
	p.pending = true
	p.cond.Signal()
}

// Close stops the provider goroutine and waits for it to exit.
func (p *OvalProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
}

func (p *OvalProvider) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for !p.pending && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		w, h := p.width, p.height
		fn := p.onResult
		p.pending = false
		p.mu.Unlock()

		mask := OvalMask(w, h)
		if fn != nil {
			fn(mask)
		}
		p.logger.WithFields(logrus.Fields{
			"function": "OvalProvider.run",
			"width":    w,
			"height":   h,
		}).Trace("Produced mask")
	}
}

// OvalMask returns a w×h mask with an opaque centered ellipse covering 60%
// of the width and 90% of the height.
func OvalMask(w, h int) *video.Mask {
	m := video.NewMask(w, h)
	cx, cy := float64(w)/2, float64(h)/2
	rx, ry := float64(w)*0.3, float64(h)*0.45
	if rx <= 0 || ry <= 0 {
		return m
	}
	for y := 0; y < h; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			if math.Hypot(dx, dy) <= 1 {
				m.Alpha[y*w+x] = 255
			}
		}
	}
	return m
}
