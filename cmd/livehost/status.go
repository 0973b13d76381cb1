package main

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost"
	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/snapshot"
	"github.com/opd-ai/livehost/video"
)

type statusReport struct {
	Camera    bool   `json:"camera"`
	Streaming bool   `json:"streaming"`
	PeerState string `json:"peer_state"`
	ShareURL  string `json:"share_url,omitempty"`
	Frames    uint64 `json:"frames"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Filter    string `json:"filter"`
}

// newStatusRouter serves /healthz, /metrics and /frame.jpg for host.
func newStatusRouter(host *livehost.Host, met *metrics.Metrics, logger *logrus.Entry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.RequestMiddleware(met))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		width, height := host.Surface().Size()
		report := statusReport{
			Camera:    host.CameraRunning(),
			Streaming: host.Streaming(),
			PeerState: host.PeerState().String(),
			ShareURL:  host.ShareURL(),
			Frames:    host.Surface().Sequence(),
			Width:     width,
			Height:    height,
			Filter:    string(host.Filter().Filter),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.WithFields(logrus.Fields{
				"function": "statusRouter.healthz",
				"error":    err.Error(),
			}).Debug("Status write failed")
		}
	})

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetPeerState(host.PeerState().String()) }).ServeHTTP(w, r)
	})

	r.Get("/frame.jpg", func(w http.ResponseWriter, _ *http.Request) {
		var frame video.Frame
		if host.Surface().SnapshotInto(&frame) == 0 || frame.Empty() {
			http.Error(w, "no frame rendered", http.StatusServiceUnavailable)
			return
		}
		var buf bytes.Buffer
		if err := (snapshot.JPEGEncoder{}).Encode(&buf, frame.Image(), snapshot.FallbackQuality); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	})
	return r
}
