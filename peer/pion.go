package peer

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
)

// PeerConnection is the part of a WebRTC peer connection the session uses.
type PeerConnection interface {
	CreateDataChannel(label string) (DataChannel, error)
	AddTrack(track webrtc.TrackLocal) error
	CreateOffer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	// OnICECandidate is called for each gathered local candidate. The end
	// of gathering is not reported.
	OnICECandidate(fn func(webrtc.ICECandidateInit))
	OnConnectionStateChange(fn func(webrtc.PeerConnectionState))
	SignalingState() webrtc.SignalingState
	Close() error
}

// DataChannel is a text-only view of a WebRTC data channel.
type DataChannel interface {
	OnOpen(fn func())
	OnMessage(fn func(text string))
	SendText(text string) error
	ReadyState() webrtc.DataChannelState
	Close() error
}

// Factory creates peer connections.
type Factory interface {
	NewPeerConnection(cfg webrtc.Configuration) (PeerConnection, error)
}

// PionFactory creates pion peer connections with the default codecs and
// interceptors registered.
type PionFactory struct {
	api *webrtc.API
}

// NewPionFactory builds a pion API with default codecs and interceptors.
func NewPionFactory() (*PionFactory, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	)
	return &PionFactory{api: api}, nil
}

// NewPeerConnection implements Factory.
func (f *PionFactory) NewPeerConnection(cfg webrtc.Configuration) (PeerConnection, error) {
	pc, err := f.api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &pionConn{pc: pc}, nil
}

type pionConn struct {
	pc *webrtc.PeerConnection
}

func (c *pionConn) CreateDataChannel(label string) (DataChannel, error) {
	dc, err := c.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, err
	}
	return &pionDataChannel{dc: dc}, nil
}

// AddTrack adds a local track and drains its RTCP so interceptors such as
// NACK keep working.
func (c *pionConn) AddTrack(track webrtc.TrackLocal) error {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

func (c *pionConn) CreateOffer() (webrtc.SessionDescription, error) {
	return c.pc.CreateOffer(nil)
}

func (c *pionConn) SetLocalDescription(desc webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(desc)
}

func (c *pionConn) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(desc)
}

func (c *pionConn) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(candidate)
}

func (c *pionConn) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.pc.OnICECandidate(func(ic *webrtc.ICECandidate) {
		if ic == nil {
			return
		}
		fn(ic.ToJSON())
	})
}

func (c *pionConn) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	c.pc.OnConnectionStateChange(fn)
}

func (c *pionConn) SignalingState() webrtc.SignalingState {
	return c.pc.SignalingState()
}

func (c *pionConn) Close() error {
	return c.pc.Close()
}

type pionDataChannel struct {
	dc *webrtc.DataChannel
}

func (d *pionDataChannel) OnOpen(fn func()) {
	d.dc.OnOpen(fn)
}

func (d *pionDataChannel) OnMessage(fn func(text string)) {
	d.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(string(msg.Data))
	})
}

func (d *pionDataChannel) SendText(text string) error {
	return d.dc.SendText(text)
}

func (d *pionDataChannel) ReadyState() webrtc.DataChannelState {
	return d.dc.ReadyState()
}

func (d *pionDataChannel) Close() error {
	return d.dc.Close()
}
