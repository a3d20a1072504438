package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbscope/usbscope/internal/backend"
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/filter"
	"github.com/usbscope/usbscope/internal/frontend"
)

// stubBackend emits a fixed set of raw events through the real sink path,
// then returns, like a capture whose source ran dry.
type stubBackend struct {
	backend.Base
	events [][]byte
	block  bool // when set, ignore termination and hang until released
	done   chan struct{}
}

func newStubBackend(events [][]byte) *stubBackend {
	return &stubBackend{events: events, done: make(chan struct{})}
}

func (b *stubBackend) Run() error {
	b.SetState(backend.StateOpened)
	defer func() {
		b.SetState(backend.StateStopping)
		b.SetState(backend.StateClosed)
	}()

	b.SetState(backend.StateCapturing)
	sink := backend.NewSink(&b.Base, b.Suppression())
	for i, ev := range b.events {
		if b.Halted() {
			return nil
		}
		sink.HandleEvent(time.Now(), ev, uint32(i))
	}
	if b.block {
		<-b.done
	}
	return nil
}

// recordingFrontend records dispatched packets via the default run loop.
type recordingFrontend struct {
	*frontend.Base
	mu         sync.Mutex
	packets    []core.Packet
	terminated int
}

func newRecordingFrontend() *recordingFrontend {
	f := &recordingFrontend{}
	f.Base = frontend.NewBase(f)
	return f
}

func (f *recordingFrontend) OnPacket(p core.Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, p)
}

func (f *recordingFrontend) OnTerminate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated++
}

func (f *recordingFrontend) snapshot() ([]core.Packet, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Packet(nil), f.packets...), f.terminated
}

func TestPipeline_EndToEnd(t *testing.T) {
	events := [][]byte{
		{core.PIDSetup, 0x80, 0x06},
		{core.PIDData0, 0x12, 0x01},
		{core.PIDAck},
		{core.PIDIn, 0x81},
		{core.PIDData1, 0xDE, 0xAD},
	}
	be := newStubBackend(events)
	fe := newRecordingFrontend()

	p := NewBuilder().
		WithBackend(be).
		WithFrontend(fe).
		WithCapacity(64).
		WithPollTimeout(time.Millisecond).
		WithJoinTimeout(time.Second).
		Build()

	require.NoError(t, p.Run(context.Background()))

	got, terms := fe.snapshot()
	require.Len(t, got, len(events))
	for i, p := range got {
		assert.Equal(t, events[i], p.Payload, "packet %d out of order", i)
	}
	assert.Equal(t, 1, terms, "OnTerminate exactly once")
	assert.Equal(t, backend.StateClosed, be.State())
}

func TestPipeline_EmptyEventsDropped(t *testing.T) {
	be := newStubBackend([][]byte{{core.PIDAck}, {}, nil, {core.PIDNak}})
	fe := newRecordingFrontend()

	p := NewBuilder().
		WithBackend(be).
		WithFrontend(fe).
		WithPollTimeout(time.Millisecond).
		WithJoinTimeout(time.Second).
		Build()
	require.NoError(t, p.Run(context.Background()))

	got, _ := fe.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, core.PIDAck, got[0].PID())
	assert.Equal(t, core.PIDNak, got[1].PID())
}

func TestPipeline_FilterChainSuppressesAtSource(t *testing.T) {
	be := newStubBackend([][]byte{
		{core.PIDSOF, 0x01},
		{core.PIDData0, 0xAA},
		{core.PIDSOF, 0x02},
	})
	fe := newRecordingFrontend()

	p := NewBuilder().
		WithBackend(be).
		WithFrontend(fe).
		WithFilters(filter.NewPIDFilter(core.PIDSOF)).
		WithPollTimeout(time.Millisecond).
		WithJoinTimeout(time.Second).
		Build()
	require.NoError(t, p.Run(context.Background()))

	got, _ := fe.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, core.PIDData0, got[0].PID())
}

func TestPipeline_ContextCancelStopsRun(t *testing.T) {
	be := newStubBackend(nil)
	be.block = true
	defer close(be.done)

	fe := newRecordingFrontend()
	p := NewBuilder().
		WithBackend(be).
		WithFrontend(fe).
		WithPollTimeout(time.Millisecond).
		WithJoinTimeout(100 * time.Millisecond).
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	// The backend ignores termination, so the run reports it as hung; the
	// frontend still winds down cleanly.
	err := p.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend context hung")

	_, terms := fe.snapshot()
	assert.Equal(t, 1, terms)
}

func TestPipeline_FrontendQuitStopsBackend(t *testing.T) {
	be := newStubBackend(nil)
	fe := newRecordingFrontend()

	p := NewBuilder().
		WithBackend(be).
		WithFrontend(fe).
		WithPollTimeout(time.Millisecond).
		WithJoinTimeout(time.Second).
		Build()

	go func() {
		time.Sleep(20 * time.Millisecond)
		fe.RequestStop()
	}()

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, backend.StateClosed, be.State())
}
