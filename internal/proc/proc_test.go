package proc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbscope/usbscope/internal/pipe"
)

// funcRunner adapts a closure to the Runner interface.
type funcRunner func() error

func (f funcRunner) Run() error { return f() }

func TestManager_StartConfirmsRunning(t *testing.T) {
	tok := pipe.NewToken()
	m := NewManager("backend", tok)

	ran := make(chan struct{})
	require.NoError(t, m.Start(funcRunner(func() error {
		close(ran)
		return nil
	})))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("runner never executed after Start returned")
	}
	assert.True(t, m.Join(time.Second))
	assert.NoError(t, m.Err())
}

func TestManager_DoubleStartRejected(t *testing.T) {
	tok := pipe.NewToken()
	m := NewManager("backend", tok)

	require.NoError(t, m.Start(funcRunner(func() error { return nil })))
	assert.Error(t, m.Start(funcRunner(func() error { return nil })))
}

func TestManager_RunnerExitTripsToken(t *testing.T) {
	tok := pipe.NewToken()
	m := NewManager("backend", tok)

	require.NoError(t, m.Start(funcRunner(func() error { return nil })))
	require.True(t, m.Join(time.Second))

	assert.True(t, tok.Tripped(), "peer contexts must learn the run ended")
}

func TestManager_RunnerErrorPropagatesAndTerminatesRun(t *testing.T) {
	tok := pipe.NewToken()
	m := NewManager("backend", tok)
	boom := errors.New("device detached")

	require.NoError(t, m.Start(funcRunner(func() error { return boom })))
	require.True(t, m.Join(time.Second))

	assert.ErrorIs(t, m.Err(), boom)
	assert.True(t, tok.Tripped())
}

func TestManager_RequestStopIsIdempotent(t *testing.T) {
	tok := pipe.NewToken()
	m := NewManager("frontend", tok)

	require.NoError(t, m.Start(funcRunner(func() error {
		<-tok.Done()
		return nil
	})))

	m.RequestStop()
	m.RequestStop()
	assert.True(t, m.Join(time.Second))
}

func TestManager_JoinTimeoutReportsHang(t *testing.T) {
	tok := pipe.NewToken()
	m := NewManager("backend", tok)

	release := make(chan struct{})
	require.NoError(t, m.Start(funcRunner(func() error {
		<-release
		return nil
	})))

	assert.False(t, m.Join(30*time.Millisecond), "hung context must be reported")

	close(release)
	assert.True(t, m.Join(time.Second))
}
