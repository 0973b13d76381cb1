package peer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/limits"
	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/signaling"
)

const (
	// DefaultRoom is used for fallback chat before any session has started.
	DefaultRoom = "main"
	// DefaultICEServer is the public STUN server used when none is configured.
	DefaultICEServer = "stun:stun.l.google.com:19302"

	chatLabel         = "chat"
	viewerChatUser    = "(viewer)"
	defaultHostUser   = "host"
	eventQueueSize    = 64
	maxPendingRemote  = 64
	auxiliaryChatWait = 5 * time.Second
)

// Config configures a Session.
type Config struct {
	// Base is the relay base URL (http, https, ws or wss).
	Base       string
	ICEServers []string
	Dialer     signaling.Dialer
	Factory    Factory
	Media      MediaSource

	// The callbacks below run on the negotiation goroutine or inside
	// Start. They must not call Start or Stop directly, which would
	// deadlock; hand off to another goroutine instead.

	// OnChat receives data channel messages as ("(viewer)", text).
	OnChat func(user, text string)
	// OnStateChange is called after every state transition.
	OnStateChange func(State)
	// OnWarning receives non-fatal problems meant for the operator, such
	// as a missing microphone.
	OnWarning func(err error)

	Metrics *metrics.Metrics
	Logger  *logrus.Entry
}

// Session is the host side of a peer-to-peer media session negotiated
// through a signaling relay.
//
// A Session holds at most one negotiation at a time. All signaling
// messages, local ICE candidates and data channel events are queued and
// handled by one goroutine per negotiation, so negotiation state is never
// mutated concurrently. Stop and channel closure both tear the
// negotiation down completely; the next Start builds a fresh one.
type Session struct {
	cfg    Config
	logger *logrus.Entry

	// startMu serializes Start and Stop, so a Stop issued while Start is
	// still dialing tears down the negotiation Start goes on to publish.
	startMu sync.Mutex

	mu    sync.Mutex
	state State
	room  string
	neg   *negotiation
}

type eventKind int

const (
	evSignalOpen eventKind = iota
	evSignalMessage
	evSignalClosed
	evLocalCandidate
	evDataOpen
	evDataMessage
	evConnState
)

type event struct {
	kind      eventKind
	raw       []byte
	candidate webrtc.ICECandidateInit
	text      string
	connState webrtc.PeerConnectionState
}

// negotiation is the per-start state. The handles above events are fixed
// once the negotiation is published; the fields below done are owned by
// its goroutine.
type negotiation struct {
	id       string
	room     string
	shareURL string
	pc       PeerConnection
	dc       DataChannel
	sig      signaling.Channel
	tracks   []LocalTrack

	events   chan event
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	lastOffer         string
	remoteApplied     bool
	pendingCandidates []webrtc.ICECandidateInit
}

// NewSession validates cfg and returns an idle session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Dialer == nil {
		return nil, ErrNoDialer
	}
	if cfg.Factory == nil {
		return nil, ErrNoFactory
	}
	if cfg.Media == nil {
		return nil, ErrNoMedia
	}
	if len(cfg.ICEServers) == 0 {
		cfg.ICEServers = []string{DefaultICEServer}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{
		cfg:    cfg,
		logger: cfg.Logger,
		state:  StateIdle,
		room:   DefaultRoom,
	}, nil
}

// State returns the current negotiation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a negotiation exists.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.neg != nil
}

// Room returns the room of the current or most recent session.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// ShareURL returns the viewer page link while a session is active.
func (s *Session) ShareURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.neg == nil {
		return ""
	}
	return s.neg.shareURL
}

// setStateLocked records st and reports whether it changed. Callers
// invoke notify after releasing mu.
func (s *Session) setStateLocked(st State) bool {
	if s.state == st {
		return false
	}
	s.state = st
	s.cfg.Metrics.SetPeerState(st.String())
	return true
}

func (s *Session) notify(changed bool, st State) {
	if changed && s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(st)
	}
}

func (s *Session) transition(st State) {
	s.mu.Lock()
	changed := s.setStateLocked(st)
	s.mu.Unlock()
	s.notify(changed, st)
}

// setState transitions only if neg is still the current negotiation.
func (s *Session) setState(neg *negotiation, st State) {
	s.mu.Lock()
	if s.neg != neg {
		s.mu.Unlock()
		return
	}
	changed := s.setStateLocked(st)
	s.mu.Unlock()
	s.notify(changed, st)
}

// Start acquires local media, opens the signaling channel for room and
// sends an offer once it is open. A session that is already active is
// stopped first, so Start also switches rooms.
func (s *Session) Start(ctx context.Context, room string) error {
	clean, err := signaling.ValidateRoom(room)
	if err != nil {
		return err
	}
	sigURL, err := signaling.RoomURL(s.cfg.Base, clean)
	if err != nil {
		return err
	}
	share, err := signaling.PeerPageURL(s.cfg.Base, clean)
	if err != nil {
		return err
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()
	s.stopLocked()

	neg := &negotiation{
		id:       uuid.NewString(),
		room:     clean,
		shareURL: share,
		events:   make(chan event, eventQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	logger := s.logger.WithFields(logrus.Fields{
		"room":        clean,
		"negotiation": neg.id,
	})

	s.mu.Lock()
	s.room = clean
	s.mu.Unlock()
	s.transition(StateAwaitingSignal)

	if err := s.prepare(ctx, neg, logger); err != nil {
		neg.release()
		s.transition(StateIdle)
		return err
	}

	sig, err := s.cfg.Dialer.Dial(ctx, sigURL)
	if err != nil {
		neg.release()
		s.transition(StateIdle)
		return fmt.Errorf("%w: %w", ErrSignalingUnavailable, err)
	}
	neg.sig = sig

	s.mu.Lock()
	s.neg = neg
	s.mu.Unlock()

	go neg.pumpSignaling()
	go s.run(neg, logger)
	neg.post(event{kind: evSignalOpen})

	logger.WithFields(logrus.Fields{
		"function": "Session.Start",
		"url":      sigURL,
	}).Info("Signaling channel open")
	return nil
}

// prepare acquires media and builds the peer connection with its data
// channel and tracks. On error, whatever was acquired is left in neg for
// release.
func (s *Session) prepare(ctx context.Context, neg *negotiation, logger *logrus.Entry) error {
	streamID := "livehost-" + neg.id

	videoTrack, err := s.cfg.Media.VideoTrack(ctx, streamID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVideoUnavailable, err)
	}
	neg.tracks = append(neg.tracks, videoTrack)

	audioTrack, err := s.cfg.Media.AudioTrack(ctx, streamID)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"function": "Session.prepare",
			"error":    err.Error(),
		}).Warn("Microphone unavailable, continuing video-only")
		if s.cfg.OnWarning != nil {
			s.cfg.OnWarning(fmt.Errorf("%w: %w", ErrMicrophoneUnavailable, err))
		}
	} else {
		neg.tracks = append(neg.tracks, audioTrack)
	}

	pc, err := s.cfg.Factory.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: s.cfg.ICEServers}},
	})
	if err != nil {
		return fmt.Errorf("create peer connection: %w", err)
	}
	neg.pc = pc

	for _, t := range neg.tracks {
		if err := pc.AddTrack(t.Track()); err != nil {
			return fmt.Errorf("add track: %w", err)
		}
	}

	dc, err := pc.CreateDataChannel(chatLabel)
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	neg.dc = dc

	dc.OnOpen(func() { neg.post(event{kind: evDataOpen}) })
	dc.OnMessage(func(text string) { neg.post(event{kind: evDataMessage, text: text}) })
	pc.OnICECandidate(func(c webrtc.ICECandidateInit) {
		neg.post(event{kind: evLocalCandidate, candidate: c})
	})
	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		neg.post(event{kind: evConnState, connState: st})
	})
	return nil
}

// Stop closes the data channel, the peer connection and the signaling
// channel, stops all local tracks and clears negotiation state. Stopping
// an idle or closed session does nothing. Stop issued while Start is in
// progress waits for it and then stops the negotiation it started.
func (s *Session) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	s.mu.Lock()
	neg := s.neg
	s.mu.Unlock()
	if neg == nil {
		return
	}
	neg.close()
	<-neg.done
}

// SendChat sends a chat line to the viewer. Over an open data channel the
// text goes as "<name>: <text>". Otherwise a one-shot connection to the
// relay's events address delivers {"t":"c"} and is closed; there is no
// delivery confirmation. name defaults to "host"; blank text is ignored.
func (s *Session) SendChat(ctx context.Context, name, text string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultHostUser
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := limits.ValidateChatText(text); err != nil {
		return err
	}

	s.mu.Lock()
	neg := s.neg
	room := s.room
	s.mu.Unlock()

	if neg != nil && neg.dc != nil && neg.dc.ReadyState() == webrtc.DataChannelStateOpen {
		if err := neg.dc.SendText(name + ": " + text); err == nil {
			s.cfg.Metrics.IncChat("out", "datachannel")
			return nil
		}
	}
	return s.sendAuxiliaryChat(ctx, room, name, text)
}

func (s *Session) sendAuxiliaryChat(ctx context.Context, room, name, text string) error {
	url, err := signaling.EventsURL(s.cfg.Base)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, auxiliaryChatWait)
	defer cancel()

	ch, err := s.cfg.Dialer.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignalingUnavailable, err)
	}
	if err := signaling.SendAndClose(ctx, ch, signaling.ChatMessage(room, name, text)); err != nil {
		return err
	}
	s.cfg.Metrics.IncChat("out", "events")
	return nil
}

// post queues an event for the negotiation goroutine. Events posted after
// the negotiation stopped are dropped.
func (n *negotiation) post(ev event) {
	select {
	case n.events <- ev:
	case <-n.stop:
	}
}

func (n *negotiation) close() {
	n.stopOnce.Do(func() { close(n.stop) })
}

func (n *negotiation) pumpSignaling() {
	inbound := n.sig.Inbound()
	for {
		select {
		case <-n.stop:
			return
		case raw, ok := <-inbound:
			if !ok {
				n.post(event{kind: evSignalClosed})
				return
			}
			n.post(event{kind: evSignalMessage, raw: raw})
		case <-n.sig.Done():
			n.post(event{kind: evSignalClosed})
			return
		}
	}
}

// release tears down everything the negotiation holds.
func (n *negotiation) release() {
	if n.dc != nil {
		_ = n.dc.Close()
	}
	if n.pc != nil {
		_ = n.pc.Close()
	}
	if n.sig != nil {
		_ = n.sig.Close()
	}
	for _, t := range n.tracks {
		t.Stop()
	}
	n.lastOffer = ""
	n.remoteApplied = false
	n.pendingCandidates = nil
}

func (s *Session) run(neg *negotiation, logger *logrus.Entry) {
	defer func() {
		neg.close()
		neg.release()
		s.mu.Lock()
		changed := false
		if s.neg == neg {
			s.neg = nil
			changed = s.setStateLocked(StateClosed)
		}
		s.mu.Unlock()
		s.notify(changed, StateClosed)
		close(neg.done)
		logger.WithField("function", "Session.run").Info("Peer session stopped")
	}()

	for {
		select {
		case <-neg.stop:
			return
		case ev := <-neg.events:
			if !s.handle(neg, ev, logger) {
				return
			}
		}
	}
}

// handle processes one event and reports whether the negotiation continues.
func (s *Session) handle(neg *negotiation, ev event, logger *logrus.Entry) bool {
	switch ev.kind {
	case evSignalOpen:
		s.sendFreshOffer(neg, logger)
	case evSignalClosed:
		logger.WithField("function", "Session.handle").Info("Signaling channel closed")
		return false
	case evSignalMessage:
		s.handleSignal(neg, ev.raw, logger)
	case evLocalCandidate:
		if err := signaling.SendMessage(neg.sig, signaling.ICEMessage(ev.candidate)); err != nil {
			logger.WithFields(logrus.Fields{
				"function": "Session.handle",
				"error":    err.Error(),
			}).Debug("Could not send local candidate")
		} else {
			s.cfg.Metrics.IncSignaling("out", string(signaling.TypeICE))
		}
	case evDataOpen:
		logger.WithField("function", "Session.handle").Info("Data channel open")
	case evDataMessage:
		s.cfg.Metrics.IncChat("in", "datachannel")
		if s.cfg.OnChat != nil {
			s.cfg.OnChat(viewerChatUser, ev.text)
		}
	case evConnState:
		logger.WithFields(logrus.Fields{
			"function": "Session.handle",
			"state":    ev.connState.String(),
		}).Info("Peer connection state changed")
	}
	return true
}

func (s *Session) handleSignal(neg *negotiation, raw []byte, logger *logrus.Entry) {
	msg, err := signaling.Decode(raw)
	if err != nil {
		s.cfg.Metrics.IncMalformed()
		logger.WithFields(logrus.Fields{
			"function": "Session.handleSignal",
			"error":    err.Error(),
		}).Debug("Discarding signaling message")
		return
	}
	s.cfg.Metrics.IncSignaling("in", string(msg.Type))

	switch {
	case msg.IsViewerEnter():
		if neg.lastOffer != "" && neg.pc.SignalingState() != webrtc.SignalingStateClosed {
			s.sendOffer(neg, neg.lastOffer, "replay", logger)
			return
		}
		s.sendFreshOffer(neg, logger)

	case msg.Type == signaling.TypeAnswer:
		err := neg.pc.SetRemoteDescription(webrtc.SessionDescription{
			Type: webrtc.SDPTypeAnswer,
			SDP:  msg.SDP,
		})
		if err != nil {
			logger.WithFields(logrus.Fields{
				"function": "Session.handleSignal",
				"error":    err.Error(),
			}).Warn("Could not apply answer")
			return
		}
		neg.remoteApplied = true
		s.setState(neg, StateConnected)
		logger.WithField("function", "Session.handleSignal").Info("Answer applied")
		s.flushPendingCandidates(neg, logger)

	case msg.Type == signaling.TypeICE:
		s.addRemoteCandidate(neg, *msg.Candidate, logger)
	}
}

// addRemoteCandidate applies a remote candidate. A candidate that fails
// before any answer was applied is kept and retried once after the answer;
// any other failure is swallowed.
func (s *Session) addRemoteCandidate(neg *negotiation, c webrtc.ICECandidateInit, logger *logrus.Entry) {
	err := neg.pc.AddICECandidate(c)
	if err == nil {
		return
	}
	if !neg.remoteApplied && len(neg.pendingCandidates) < maxPendingRemote {
		neg.pendingCandidates = append(neg.pendingCandidates, c)
		return
	}
	s.cfg.Metrics.IncICEErrors()
	logger.WithFields(logrus.Fields{
		"function": "Session.addRemoteCandidate",
		"error":    err.Error(),
	}).Debug("Ignoring remote candidate")
}

func (s *Session) flushPendingCandidates(neg *negotiation, logger *logrus.Entry) {
	pending := neg.pendingCandidates
	neg.pendingCandidates = nil
	for _, c := range pending {
		if err := neg.pc.AddICECandidate(c); err != nil {
			s.cfg.Metrics.IncICEErrors()
			logger.WithFields(logrus.Fields{
				"function": "Session.flushPendingCandidates",
				"error":    err.Error(),
			}).Debug("Ignoring remote candidate")
		}
	}
}

func (s *Session) sendFreshOffer(neg *negotiation, logger *logrus.Entry) {
	offer, err := neg.pc.CreateOffer()
	if err == nil {
		err = neg.pc.SetLocalDescription(offer)
	}
	if err != nil {
		logger.WithFields(logrus.Fields{
			"function": "Session.sendFreshOffer",
			"error":    err.Error(),
		}).Warn("Could not create offer")
		return
	}
	neg.lastOffer = offer.SDP
	s.sendOffer(neg, offer.SDP, "fresh", logger)
}

func (s *Session) sendOffer(neg *negotiation, sdp, kind string, logger *logrus.Entry) {
	if err := signaling.SendMessage(neg.sig, signaling.OfferMessage(sdp)); err != nil {
		logger.WithFields(logrus.Fields{
			"function": "Session.sendOffer",
			"error":    err.Error(),
		}).Debug("Could not send offer")
		return
	}
	s.cfg.Metrics.IncOffer(kind)
	s.cfg.Metrics.IncSignaling("out", string(signaling.TypeOffer))
	s.setState(neg, StateNegotiating)
	logger.WithFields(logrus.Fields{
		"function": "Session.sendOffer",
		"kind":     kind,
	}).Info("Offer sent")
}
