// Package core defines core data structures with zero external dependencies.
package core

import "time"

// Capture-layer status flag bits. Backends set what they can derive from
// their source; a bit a source cannot know stays clear.
const (
	FlagDirIn    uint32 = 1 << 0 // device-to-host transfer
	FlagCallback uint32 = 1 << 1 // completion event, not submission
	FlagError    uint32 = 1 << 2 // capture layer reported an error status
)

// Packet is the unit moved through the capture pipeline. It carries the raw
// USB packet bytes as produced by the capture layer, together with the capture
// timestamp and the capture-layer status flags. Decoding the payload into
// semantic USB transactions is a higher layer's concern.
type Packet struct {
	Payload   []byte    // Raw packet bytes, never empty once emitted
	Timestamp time.Time // Capture timestamp
	Flags     uint32    // Capture-layer status flags
}

// PID returns the packet identifier byte, or 0 for a packet with no payload.
func (p Packet) PID() byte {
	if len(p.Payload) == 0 {
		return 0
	}
	return p.Payload[0]
}
