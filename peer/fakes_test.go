package peer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"

	"github.com/opd-ai/livehost/signaling"
)

var errFake = errors.New("fake failure")

type fakeDataChannel struct {
	mu        sync.Mutex
	state     webrtc.DataChannelState
	sent      []string
	onOpen    func()
	onMessage func(string)
	closed    bool
}

func (d *fakeDataChannel) OnOpen(fn func()) {
	d.mu.Lock()
	d.onOpen = fn
	d.mu.Unlock()
}

func (d *fakeDataChannel) OnMessage(fn func(string)) {
	d.mu.Lock()
	d.onMessage = fn
	d.mu.Unlock()
}

func (d *fakeDataChannel) SendText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != webrtc.DataChannelStateOpen {
		return errFake
	}
	d.sent = append(d.sent, text)
	return nil
}

func (d *fakeDataChannel) ReadyState() webrtc.DataChannelState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *fakeDataChannel) Close() error {
	d.mu.Lock()
	d.closed = true
	d.state = webrtc.DataChannelStateClosed
	d.mu.Unlock()
	return nil
}

func (d *fakeDataChannel) open() {
	d.mu.Lock()
	d.state = webrtc.DataChannelStateOpen
	fn := d.onOpen
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (d *fakeDataChannel) receive(text string) {
	d.mu.Lock()
	fn := d.onMessage
	d.mu.Unlock()
	fn(text)
}

func (d *fakeDataChannel) sentTexts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent...)
}

func (d *fakeDataChannel) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakePeerConnection struct {
	mu sync.Mutex

	offers     int
	local      string
	remote     string
	tracks     int
	candidates []webrtc.ICECandidateInit
	sigState   webrtc.SignalingState
	closed     bool
	dc         *fakeDataChannel
	onICE      func(webrtc.ICECandidateInit)

	// rejectCandidates fails every AddICECandidate; otherwise candidates
	// fail only before a remote description is set.
	rejectCandidates bool
}

func (p *fakePeerConnection) CreateDataChannel(label string) (DataChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dc = &fakeDataChannel{state: webrtc.DataChannelStateConnecting}
	return p.dc, nil
}

func (p *fakePeerConnection) AddTrack(webrtc.TrackLocal) error {
	p.mu.Lock()
	p.tracks++
	p.mu.Unlock()
	return nil
}

func (p *fakePeerConnection) CreateOffer() (webrtc.SessionDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: fmt.Sprintf("v=0 offer-%d", p.offers)}, nil
}

func (p *fakePeerConnection) SetLocalDescription(d webrtc.SessionDescription) error {
	p.mu.Lock()
	p.local = d.SDP
	p.sigState = webrtc.SignalingStateHaveLocalOffer
	p.mu.Unlock()
	return nil
}

func (p *fakePeerConnection) SetRemoteDescription(d webrtc.SessionDescription) error {
	p.mu.Lock()
	p.remote = d.SDP
	p.sigState = webrtc.SignalingStateStable
	p.mu.Unlock()
	return nil
}

func (p *fakePeerConnection) AddICECandidate(c webrtc.ICECandidateInit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rejectCandidates || p.remote == "" {
		return errFake
	}
	p.candidates = append(p.candidates, c)
	return nil
}

func (p *fakePeerConnection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	p.mu.Lock()
	p.onICE = fn
	p.mu.Unlock()
}

func (p *fakePeerConnection) OnConnectionStateChange(func(webrtc.PeerConnectionState)) {}

func (p *fakePeerConnection) SignalingState() webrtc.SignalingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sigState
}

func (p *fakePeerConnection) Close() error {
	p.mu.Lock()
	p.closed = true
	p.sigState = webrtc.SignalingStateClosed
	p.mu.Unlock()
	return nil
}

func (p *fakePeerConnection) setSignalingState(st webrtc.SignalingState) {
	p.mu.Lock()
	p.sigState = st
	p.mu.Unlock()
}

func (p *fakePeerConnection) snapshot() (offers, tracks int, candidates []webrtc.ICECandidateInit, closed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offers, p.tracks, append([]webrtc.ICECandidateInit(nil), p.candidates...), p.closed
}

func (p *fakePeerConnection) dataChannel() *fakeDataChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dc
}

func (p *fakePeerConnection) emitCandidate(c webrtc.ICECandidateInit) {
	p.mu.Lock()
	fn := p.onICE
	p.mu.Unlock()
	fn(c)
}

type fakeFactory struct {
	mu    sync.Mutex
	conns []*fakePeerConnection
	next  func(*fakePeerConnection)
}

func (f *fakeFactory) NewPeerConnection(webrtc.Configuration) (PeerConnection, error) {
	pc := &fakePeerConnection{sigState: webrtc.SignalingStateStable}
	f.mu.Lock()
	if f.next != nil {
		f.next(pc)
	}
	f.conns = append(f.conns, pc)
	f.mu.Unlock()
	return pc, nil
}

func (f *fakeFactory) last() *fakePeerConnection {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

type fakeTrack struct {
	track webrtc.TrackLocal
	mu    sync.Mutex
	stops int
}

func newFakeTrack(kind string) *fakeTrack {
	codec := webrtc.MimeTypeVP8
	if kind == "audio" {
		codec = webrtc.MimeTypeOpus
	}
	tr, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: codec}, kind, "test")
	if err != nil {
		panic(err)
	}
	return &fakeTrack{track: tr}
}

func (t *fakeTrack) Track() webrtc.TrackLocal { return t.track }

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	t.stops++
	t.mu.Unlock()
}

func (t *fakeTrack) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops > 0
}

type fakeMedia struct {
	videoErr error
	audioErr error
	video    *fakeTrack
	audio    *fakeTrack
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{video: newFakeTrack("video"), audio: newFakeTrack("audio")}
}

func (m *fakeMedia) VideoTrack(context.Context, string) (LocalTrack, error) {
	if m.videoErr != nil {
		return nil, m.videoErr
	}
	return m.video, nil
}

func (m *fakeMedia) AudioTrack(context.Context, string) (LocalTrack, error) {
	if m.audioErr != nil {
		return nil, m.audioErr
	}
	return m.audio, nil
}

type fakeChannel struct {
	mu      sync.Mutex
	sent    [][]byte
	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{inbound: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeChannel) Send(data []byte) error {
	select {
	case <-c.done:
		return signaling.ErrChannelClosed
	default:
	}
	c.mu.Lock()
	c.sent = append(c.sent, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) BufferedAmount() int   { return 0 }
func (c *fakeChannel) Inbound() <-chan []byte { return c.inbound }
func (c *fakeChannel) Done() <-chan struct{}  { return c.done }

func (c *fakeChannel) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeChannel) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *fakeChannel) deliver(m signaling.Message) {
	data, err := signaling.Encode(m)
	if err != nil {
		panic(err)
	}
	c.inbound <- data
}

func (c *fakeChannel) messages(t signaling.MessageType) []signaling.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []signaling.Message
	for _, raw := range c.sent {
		m, err := signaling.Decode(raw)
		if err == nil && m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// fakeDialer hands out fake channels. When gate is set, Dial reports on
// entered and then blocks until gate is closed or ctx ends.
type fakeDialer struct {
	mu       sync.Mutex
	urls     []string
	channels []*fakeChannel
	err      error

	gate    chan struct{}
	entered chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (signaling.Channel, error) {
	if d.gate != nil {
		if d.entered != nil {
			d.entered <- struct{}{}
		}
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	ch := newFakeChannel()
	d.channels = append(d.channels, ch)
	return ch, nil
}

func (d *fakeDialer) allChannels() []*fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeChannel(nil), d.channels...)
}

func (d *fakeDialer) channel(i int) *fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channels[i]
}

func (d *fakeDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}
