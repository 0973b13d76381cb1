package peer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/livehost/metrics"
	"github.com/opd-ai/livehost/signaling"
)

const (
	testBase = "http://relay.example"
	waitFor  = 2 * time.Second
	tick     = 5 * time.Millisecond
)

type sessionFixture struct {
	session *Session
	dialer  *fakeDialer
	factory *fakeFactory
	media   *fakeMedia

	mu       sync.Mutex
	chats    [][2]string
	warnings []error
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		dialer:  &fakeDialer{},
		factory: &fakeFactory{},
		media:   newFakeMedia(),
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	s, err := NewSession(Config{
		Base:    testBase,
		Dialer:  f.dialer,
		Factory: f.factory,
		Media:   f.media,
		OnChat: func(user, text string) {
			f.mu.Lock()
			f.chats = append(f.chats, [2]string{user, text})
			f.mu.Unlock()
		},
		OnWarning: func(err error) {
			f.mu.Lock()
			f.warnings = append(f.warnings, err)
			f.mu.Unlock()
		},
		Metrics: metrics.New(),
		Logger:  logrus.NewEntry(logger),
	})
	require.NoError(t, err)
	f.session = s
	t.Cleanup(s.Stop)
	return f
}

func (f *sessionFixture) start(t *testing.T, room string) (*fakeChannel, *fakePeerConnection) {
	t.Helper()
	before := len(f.dialer.dialed())
	require.NoError(t, f.session.Start(context.Background(), room))
	ch := f.dialer.channel(before)
	pc := f.factory.last()
	require.Eventually(t, func() bool {
		return len(ch.messages(signaling.TypeOffer)) == 1
	}, waitFor, tick)
	return ch, pc
}

func TestNewSessionRequiresCollaborators(t *testing.T) {
	_, err := NewSession(Config{Factory: &fakeFactory{}, Media: newFakeMedia()})
	assert.ErrorIs(t, err, ErrNoDialer)

	_, err = NewSession(Config{Dialer: &fakeDialer{}, Media: newFakeMedia()})
	assert.ErrorIs(t, err, ErrNoFactory)

	_, err = NewSession(Config{Dialer: &fakeDialer{}, Factory: &fakeFactory{}})
	assert.ErrorIs(t, err, ErrNoMedia)
}

func TestStartSendsOfferWhenSignalingOpens(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	assert.Equal(t, []string{"ws://relay.example/ws/demo"}, f.dialer.dialed())
	offer := ch.messages(signaling.TypeOffer)[0]
	assert.Equal(t, "v=0 offer-1", offer.SDP)
	assert.Equal(t, StateNegotiating, f.session.State())
	assert.Equal(t, "demo", f.session.Room())
	assert.Equal(t, "http://relay.example/static/livepage.html?room=demo", f.session.ShareURL())

	_, tracks, _, _ := pc.snapshot()
	assert.Equal(t, 2, tracks)
}

func TestStartRejectsInvalidRoom(t *testing.T) {
	f := newSessionFixture(t)
	err := f.session.Start(context.Background(), "!!!")
	assert.ErrorIs(t, err, signaling.ErrInvalidRoom)
	assert.Empty(t, f.dialer.dialed())
	assert.Equal(t, StateIdle, f.session.State())
}

func TestViewerEnterReplaysSameOffer(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	ch.deliver(signaling.SystemMessage(signaling.ViewerEnter))
	require.Eventually(t, func() bool {
		return len(ch.messages(signaling.TypeOffer)) == 2
	}, waitFor, tick)

	offers := ch.messages(signaling.TypeOffer)
	assert.Equal(t, offers[0].SDP, offers[1].SDP)
	created, _, _, _ := pc.snapshot()
	assert.Equal(t, 1, created)
}

func TestViewerEnterCreatesFreshOfferAfterSignalingClosed(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	pc.setSignalingState(webrtc.SignalingStateClosed)
	ch.deliver(signaling.SystemMessage(signaling.ViewerEnter))
	require.Eventually(t, func() bool {
		return len(ch.messages(signaling.TypeOffer)) == 2
	}, waitFor, tick)

	offers := ch.messages(signaling.TypeOffer)
	assert.Equal(t, "v=0 offer-2", offers[1].SDP)
}

func TestAnswerConnectsAndAppliesHeldCandidates(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	early := webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host"}
	ch.deliver(signaling.ICEMessage(early))
	ch.deliver(signaling.AnswerMessage("v=0 answer"))

	require.Eventually(t, func() bool {
		return f.session.State() == StateConnected
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		_, _, candidates, _ := pc.snapshot()
		return len(candidates) == 1
	}, waitFor, tick)
	_, _, candidates, _ := pc.snapshot()
	assert.Equal(t, early.Candidate, candidates[0].Candidate)
}

func TestRejectedCandidateAfterAnswerIsIgnored(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	ch.deliver(signaling.AnswerMessage("v=0 answer"))
	require.Eventually(t, func() bool {
		return f.session.State() == StateConnected
	}, waitFor, tick)

	pc.mu.Lock()
	pc.rejectCandidates = true
	pc.mu.Unlock()
	ch.deliver(signaling.ICEMessage(webrtc.ICECandidateInit{Candidate: "candidate:bad"}))
	ch.deliver(signaling.SystemMessage(signaling.ViewerEnter))

	// the replayed offer proves the loop survived the bad candidate
	require.Eventually(t, func() bool {
		return len(ch.messages(signaling.TypeOffer)) == 2
	}, waitFor, tick)
	assert.True(t, f.session.Active())
}

func TestMalformedSignalingIsDiscarded(t *testing.T) {
	f := newSessionFixture(t)
	ch, _ := f.start(t, "demo")

	ch.inbound <- []byte("{not json")
	ch.inbound <- []byte(`{"t":"bogus"}`)
	ch.deliver(signaling.SystemMessage(signaling.ViewerEnter))

	require.Eventually(t, func() bool {
		return len(ch.messages(signaling.TypeOffer)) == 2
	}, waitFor, tick)
}

func TestLocalCandidatesAreForwarded(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	pc.emitCandidate(webrtc.ICECandidateInit{Candidate: "candidate:local"})
	require.Eventually(t, func() bool {
		return len(ch.messages(signaling.TypeICE)) == 1
	}, waitFor, tick)
	assert.Equal(t, "candidate:local", ch.messages(signaling.TypeICE)[0].Candidate.Candidate)
}

func TestDataChannelMessagesReachOnChat(t *testing.T) {
	f := newSessionFixture(t)
	_, pc := f.start(t, "demo")

	dc := pc.dataChannel()
	dc.open()
	dc.receive("hello host")

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.chats) == 1
	}, waitFor, tick)
	f.mu.Lock()
	assert.Equal(t, [2]string{"(viewer)", "hello host"}, f.chats[0])
	f.mu.Unlock()
}

func TestSignalingCloseTearsDownSession(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")
	dc := pc.dataChannel()

	require.NoError(t, ch.Close())

	require.Eventually(t, func() bool {
		return f.session.State() == StateClosed
	}, waitFor, tick)
	_, _, _, closed := pc.snapshot()
	assert.True(t, closed)
	assert.True(t, dc.isClosed())
	assert.True(t, f.media.video.stopped())
	assert.True(t, f.media.audio.stopped())
	assert.False(t, f.session.Active())
	assert.Empty(t, f.session.ShareURL())
}

func TestStopIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ch, pc := f.start(t, "demo")

	f.session.Stop()
	f.session.Stop()

	assert.Equal(t, StateClosed, f.session.State())
	assert.True(t, ch.isClosed())
	_, _, _, closed := pc.snapshot()
	assert.True(t, closed)
}

func TestStopBeforeStartStaysIdle(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Stop()
	assert.Equal(t, StateIdle, f.session.State())
}

func TestStartWhileActiveSwitchesRooms(t *testing.T) {
	f := newSessionFixture(t)
	first, firstPC := f.start(t, "one")
	second, _ := f.start(t, "two")

	assert.True(t, first.isClosed())
	_, _, _, closed := firstPC.snapshot()
	assert.True(t, closed)
	assert.False(t, second.isClosed())
	assert.Equal(t, "two", f.session.Room())
	assert.Equal(t, StateNegotiating, f.session.State())
}

func TestStopDuringDialStopsStartedNegotiation(t *testing.T) {
	f := newSessionFixture(t)
	f.dialer.gate = make(chan struct{})
	f.dialer.entered = make(chan struct{}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	startErr := make(chan error, 1)
	go func() { startErr <- f.session.Start(ctx, "demo") }()

	select {
	case <-f.dialer.entered:
	case <-ctx.Done():
		t.Fatal("dial never reached")
	}

	stopped := make(chan struct{})
	go func() {
		f.session.Stop()
		close(stopped)
	}()
	assert.Never(t, func() bool {
		select {
		case <-stopped:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, tick, "stop waits for the pending start")

	close(f.dialer.gate)
	require.NoError(t, <-startErr)
	select {
	case <-stopped:
	case <-ctx.Done():
		t.Fatal("stop did not return")
	}

	assert.False(t, f.session.Active())
	assert.Equal(t, StateClosed, f.session.State())
	assert.True(t, f.media.video.stopped())
	assert.True(t, f.dialer.channel(0).isClosed())
	_, _, _, closed := f.factory.last().snapshot()
	assert.True(t, closed)
}

func TestConcurrentStartsLeaveNoOpenChannels(t *testing.T) {
	f := newSessionFixture(t)
	f.dialer.gate = make(chan struct{})
	f.dialer.entered = make(chan struct{}, 2)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, room := range []string{"one", "two"} {
		wg.Add(1)
		go func(room string) {
			defer wg.Done()
			errs <- f.session.Start(ctx, room)
		}(room)
	}

	select {
	case <-f.dialer.entered:
	case <-ctx.Done():
		t.Fatal("dial never reached")
	}
	close(f.dialer.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, f.session.Active())

	f.session.Stop()

	channels := f.dialer.allChannels()
	require.Len(t, channels, 2)
	for i, ch := range channels {
		assert.True(t, ch.isClosed(), "signaling channel %d left open", i)
	}
	assert.False(t, f.session.Active())
}

func TestStateHandlerCanStopFromGoroutine(t *testing.T) {
	dialer := &fakeDialer{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	var s *Session
	ready := make(chan struct{})
	s, err := NewSession(Config{
		Base:    testBase,
		Dialer:  dialer,
		Factory: &fakeFactory{},
		Media:   newFakeMedia(),
		OnStateChange: func(st State) {
			if st == StateNegotiating {
				go func() {
					<-ready
					s.Stop()
				}()
			}
		},
		Logger: logrus.NewEntry(logger),
	})
	require.NoError(t, err)
	close(ready)

	require.NoError(t, s.Start(context.Background(), "demo"))
	require.Eventually(t, func() bool { return s.State() == StateClosed }, waitFor, tick)
	assert.True(t, dialer.channel(0).isClosed())
}

func TestMicrophoneFailureContinuesVideoOnly(t *testing.T) {
	f := newSessionFixture(t)
	f.media.audioErr = errFake
	_, pc := f.start(t, "demo")

	_, tracks, _, _ := pc.snapshot()
	assert.Equal(t, 1, tracks)
	f.mu.Lock()
	require.Len(t, f.warnings, 1)
	assert.ErrorIs(t, f.warnings[0], ErrMicrophoneUnavailable)
	f.mu.Unlock()
}

func TestVideoFailureAbortsStart(t *testing.T) {
	f := newSessionFixture(t)
	f.media.videoErr = errFake

	err := f.session.Start(context.Background(), "demo")
	assert.ErrorIs(t, err, ErrVideoUnavailable)
	assert.Empty(t, f.dialer.dialed())
	assert.Equal(t, StateIdle, f.session.State())
}

func TestDialFailureReleasesMedia(t *testing.T) {
	f := newSessionFixture(t)
	f.dialer.err = errFake

	err := f.session.Start(context.Background(), "demo")
	assert.ErrorIs(t, err, ErrSignalingUnavailable)
	assert.True(t, f.media.video.stopped())
	_, _, _, closed := f.factory.last().snapshot()
	assert.True(t, closed)
	assert.Equal(t, StateIdle, f.session.State())
}

func TestSendChatUsesOpenDataChannel(t *testing.T) {
	f := newSessionFixture(t)
	_, pc := f.start(t, "demo")
	dc := pc.dataChannel()
	dc.open()

	require.NoError(t, f.session.SendChat(context.Background(), "", "hi there"))
	assert.Equal(t, []string{"host: hi there"}, dc.sentTexts())
	assert.Len(t, f.dialer.dialed(), 1)
}

func TestSendChatFallsBackToEventsChannel(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.SendChat(context.Background(), "ana", "hello"))

	require.Equal(t, []string{"ws://relay.example/ws/_events"}, f.dialer.dialed())
	ch := f.dialer.channel(0)
	chats := ch.messages(signaling.TypeChat)
	require.Len(t, chats, 1)
	assert.Equal(t, "main", chats[0].Room)
	assert.Equal(t, "ana", chats[0].User)
	assert.Equal(t, "hello", chats[0].Text)
	assert.True(t, ch.isClosed())
}

func TestSendChatFallbackUsesSessionRoom(t *testing.T) {
	f := newSessionFixture(t)
	f.start(t, "demo")

	// data channel never opened
	require.NoError(t, f.session.SendChat(context.Background(), "", "ping"))
	dialed := f.dialer.dialed()
	require.Len(t, dialed, 2)
	chats := f.dialer.channel(1).messages(signaling.TypeChat)
	require.Len(t, chats, 1)
	assert.Equal(t, "demo", chats[0].Room)
	assert.Equal(t, "host", chats[0].User)
}

func TestSendChatIgnoresBlankText(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.SendChat(context.Background(), "host", "   "))
	assert.Empty(t, f.dialer.dialed())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_signal", StateAwaitingSignal.String())
	assert.Equal(t, "negotiating", StateNegotiating.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "closed", StateClosed.String())
}
