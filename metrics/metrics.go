// Package metrics exposes Prometheus instrumentation for livehost.
//
// All methods are safe to call on a nil *Metrics, so components can take an
// optional metrics handle without guarding every call site.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the host.
type Metrics struct {
	registry *prometheus.Registry

	framesRendered       prometheus.Counter
	framesSkipped        prometheus.Counter
	bufferReallocations  prometheus.Counter
	segmentationRequests prometheus.Counter
	renderDuration       prometheus.Histogram

	snapshotsSent    prometheus.Counter
	snapshotsDropped prometheus.Counter
	snapshotBytes    prometheus.Counter

	signalingMessages *prometheus.CounterVec
	malformedMessages prometheus.Counter
	chatMessages      *prometheus.CounterVec

	offersSent  *prometheus.CounterVec
	iceErrors   prometheus.Counter
	peerState   *prometheus.GaugeVec
	httpReqs    *prometheus.CounterVec

	stateMu     sync.Mutex
	activeState string
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_frames_rendered_total",
			Help: "Total number of frames composited and published",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_frames_skipped_total",
			Help: "Render ticks skipped because no frame was ready",
		}),
		bufferReallocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_buffer_reallocations_total",
			Help: "Filter buffer reallocations caused by frame size changes",
		}),
		segmentationRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_segmentation_requests_total",
			Help: "Frames submitted to the segmentation provider",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "livehost_render_tick_seconds",
			Help:    "Time spent filtering and compositing one frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		snapshotsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_snapshot_frames_sent_total",
			Help: "Snapshot frames pushed to the relay",
		}),
		snapshotsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_snapshot_frames_dropped_total",
			Help: "Snapshot ticks skipped because the channel was congested",
		}),
		snapshotBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_snapshot_bytes_sent_total",
			Help: "Bytes of encoded snapshot messages sent",
		}),
		signalingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livehost_signaling_messages_total",
			Help: "Wire messages by direction and type",
		}, []string{"direction", "type"}),
		malformedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_malformed_messages_total",
			Help: "Inbound wire messages discarded as malformed or unknown",
		}),
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livehost_chat_messages_total",
			Help: "Chat messages by direction and path",
		}, []string{"direction", "path"}),
		offersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livehost_peer_offers_sent_total",
			Help: "Offers sent to the relay, fresh or replayed",
		}, []string{"kind"}),
		iceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livehost_ice_candidate_errors_total",
			Help: "Remote ICE candidates that could not be applied",
		}),
		peerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "livehost_peer_state",
			Help: "1 for the current peer session state, 0 otherwise",
		}, []string{"state"}),
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livehost_status_requests_total",
			Help: "Requests served by the local status server by route pattern and status class",
		}, []string{"route", "class"}),
	}

	m.registry.MustRegister(
		m.framesRendered,
		m.framesSkipped,
		m.bufferReallocations,
		m.segmentationRequests,
		m.renderDuration,
		m.snapshotsSent,
		m.snapshotsDropped,
		m.snapshotBytes,
		m.signalingMessages,
		m.malformedMessages,
		m.chatMessages,
		m.offersSent,
		m.iceErrors,
		m.peerState,
		m.httpReqs,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRender records one rendered frame and its processing time.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.framesRendered.Inc()
	m.renderDuration.Observe(d.Seconds())
}

// IncFramesSkipped counts a tick with no frame ready.
func (m *Metrics) IncFramesSkipped() {
	if m == nil {
		return
	}
	m.framesSkipped.Inc()
}

// IncReallocations counts a buffer resize.
func (m *Metrics) IncReallocations() {
	if m == nil {
		return
	}
	m.bufferReallocations.Inc()
}

// IncSegmentationRequests counts a frame handed to the segmentation model.
func (m *Metrics) IncSegmentationRequests() {
	if m == nil {
		return
	}
	m.segmentationRequests.Inc()
}

// AddSnapshotSent counts one sent snapshot of n bytes.
func (m *Metrics) AddSnapshotSent(n int) {
	if m == nil {
		return
	}
	m.snapshotsSent.Inc()
	m.snapshotBytes.Add(float64(n))
}

// IncSnapshotDropped counts a tick skipped for congestion.
func (m *Metrics) IncSnapshotDropped() {
	if m == nil {
		return
	}
	m.snapshotsDropped.Inc()
}

// IncSignaling counts a wire message. direction is "in" or "out".
func (m *Metrics) IncSignaling(direction, msgType string) {
	if m == nil {
		return
	}
	m.signalingMessages.WithLabelValues(direction, msgType).Inc()
}

// IncMalformed counts a discarded inbound message.
func (m *Metrics) IncMalformed() {
	if m == nil {
		return
	}
	m.malformedMessages.Inc()
}

// IncChat counts a chat message. path is "datachannel", "events" or "snapshot".
func (m *Metrics) IncChat(direction, path string) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(direction, path).Inc()
}

// IncOffer counts an offer. kind is "fresh" or "replay".
func (m *Metrics) IncOffer(kind string) {
	if m == nil {
		return
	}
	m.offersSent.WithLabelValues(kind).Inc()
}

// IncICEErrors counts a swallowed candidate failure.
func (m *Metrics) IncICEErrors() {
	if m == nil {
		return
	}
	m.iceErrors.Inc()
}

// SetPeerState marks state as current and clears the previous one.
func (m *Metrics) SetPeerState(state string) {
	if m == nil {
		return
	}
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.activeState != "" {
		m.peerState.WithLabelValues(m.activeState).Set(0)
	}
	m.peerState.WithLabelValues(state).Set(1)
	m.activeState = state
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
