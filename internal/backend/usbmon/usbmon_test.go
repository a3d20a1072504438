package usbmon

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbscope/usbscope/internal/backend"
	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/pipe"
	"github.com/usbscope/usbscope/pkg/plugin"
)

func TestParseLine(t *testing.T) {
	ev, ok := parseLine("ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4 = 12345678")
	require.True(t, ok)
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, ev.payload)
	assert.Zero(t, ev.flags&core.FlagDirIn)
	assert.Zero(t, ev.flags&core.FlagCallback)
	assert.Equal(t, time.Unix(2814, 208258000).UnixNano(), ev.timestamp.UnixNano())
}

func TestParseLine_CompletionInbound(t *testing.T) {
	ev, ok := parseLine("ffff8800632b1c80 2814208290 C Bi:2:004:1 0 8 = a5b1c2d3 00112233")
	require.True(t, ok)
	assert.Equal(t, 8, len(ev.payload))
	assert.NotZero(t, ev.flags&core.FlagDirIn)
	assert.NotZero(t, ev.flags&core.FlagCallback)
	assert.Zero(t, ev.flags&core.FlagError)
}

func TestParseLine_FailedCompletion(t *testing.T) {
	ev, ok := parseLine("ffff8800632b1c80 2814208300 C Bi:2:004:1 -71 2 = beef")
	require.True(t, ok)
	assert.NotZero(t, ev.flags&core.FlagError)
}

func TestParseLine_Rejects(t *testing.T) {
	cases := map[string]string{
		"no payload marker":    "ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4",
		"submission no data":   "ffff8800632b1c80 2814208258 S Bi:2:004:1 -115 8 <",
		"truncated":            "ffff8800632b1c80 2814208258",
		"bad timestamp":        "ffff8800632b1c80 notatime S Bo:2:004:1 -115 4 = 12345678",
		"bad event type":       "ffff8800632b1c80 2814208258 X Bo:2:004:1 -115 4 = 12345678",
		"bad hex":              "ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4 = zzzz",
		"marker without words": "ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4 =",
		"empty":                "",
	}
	for name, line := range cases {
		_, ok := parseLine(line)
		assert.False(t, ok, name)
	}
}

// withFixtureRoot points the package at a temp usbmon tree.
func withFixtureRoot(t *testing.T) string {
	t.Helper()
	old := monRoot
	monRoot = t.TempDir()
	t.Cleanup(func() { monRoot = old })
	return monRoot
}

func TestAvailability_FollowsNodePresence(t *testing.T) {
	d, ok := plugin.Find(plugin.RoleBackend, Name)
	require.True(t, ok)

	old := monRoot
	monRoot = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { monRoot = old })

	assert.False(t, d.Available())
	assert.Contains(t, d.DisableReason(), "usbmon not available")

	// Creating the node between two queries flips the answer.
	require.NoError(t, os.MkdirAll(monRoot, 0o755))
	assert.True(t, d.Available())
}

func TestParseArguments(t *testing.T) {
	opts, leftover, err := parseArguments([]string{"--bus", "2", "--speed", "high"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Options{Bus: 2}, opts)
	assert.Equal(t, []string{"--speed", "high"}, leftover)

	_, _, err = parseArguments([]string{"--bus", "-3"}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	opts, _, err = parseArguments(nil, map[string]any{"bus": 1})
	require.NoError(t, err)
	assert.Equal(t, Options{Bus: 1}, opts)
}

func TestRun_ReadsFixtureAndClosesNode(t *testing.T) {
	root := withFixtureRoot(t)
	node := filepath.Join(root, "0u")
	fixture := "ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4 = 12345678\n" +
		"garbage line that does not parse\n" +
		"ffff8800632b1c80 2814208290 C Bi:2:004:1 0 4 = a5b1c2d3\n"
	require.NoError(t, os.WriteFile(node, []byte(fixture), 0o644))

	b := New(0)
	tok := pipe.NewToken()
	ch := pipe.NewChannel(16, tok)
	b.Attach(ch, tok)

	require.NoError(t, b.Run())
	assert.Equal(t, backend.StateClosed, b.State())

	p1, ok := ch.TryPop(0)
	require.True(t, ok)
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, p1.Payload)

	p2, ok := ch.TryPop(0)
	require.True(t, ok)
	assert.NotZero(t, p2.Flags&core.FlagDirIn)

	_, ok = ch.TryPop(0)
	assert.False(t, ok, "unparseable lines must not produce packets")
}

func TestRun_ReaderExitsOnTermination(t *testing.T) {
	root := withFixtureRoot(t)
	node := filepath.Join(root, "0u")

	// Far more lines than the capture loop will consume before the token
	// trips, so the reader is guaranteed to be mid-stream at termination.
	var sb strings.Builder
	for i := 0; i < 50000; i++ {
		sb.WriteString("ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4 = 12345678\n")
	}
	require.NoError(t, os.WriteFile(node, []byte(sb.String()), 0o644))

	base := runtime.NumGoroutine()

	b := New(0)
	tok := pipe.NewToken()
	ch := pipe.NewChannel(4, tok)
	b.Attach(ch, tok)

	done := make(chan error, 1)
	go func() { done <- b.Run() }()

	_, ok := ch.TryPop(time.Second)
	require.True(t, ok, "capture never started")

	tok.Trip()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("capture loop did not observe termination")
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base
	}, time.Second, 10*time.Millisecond, "reader goroutine leaked past the run")
}

func TestRun_MissingNodeIsCaptureDeviceError(t *testing.T) {
	withFixtureRoot(t)

	b := New(9)
	tok := pipe.NewToken()
	b.Attach(pipe.NewChannel(4, tok), tok)

	err := b.Run()
	assert.ErrorIs(t, err, core.ErrCaptureDevice)
	assert.Equal(t, backend.StateClosed, b.State())
}
