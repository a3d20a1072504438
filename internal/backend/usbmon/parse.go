// Package usbmon implements a software capture backend reading the Linux
// usbmon text interface. It needs no hardware: the kernel mirrors every URB
// on a bus into /sys/kernel/debug/usb/usbmon.
package usbmon

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/usbscope/usbscope/internal/core"
)

// event is one parsed usbmon text line.
type event struct {
	timestamp time.Time
	payload   []byte
	flags     uint32
}

// parseLine parses one line of the usbmon "u" text format, e.g.
//
//	ffff8800632b1c80 2814208258 S Bo:2:004:1 -115 4 = 12345678
//
// Fields are URB tag, timestamp in microseconds, event type, address word
// (transfer type+direction, bus, device, endpoint), status, data length and
// optionally "=" followed by hex words of payload. Lines without captured
// payload yield ok=false; so do lines that do not parse at all.
func parseLine(line string) (event, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return event{}, false
	}

	us, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return event{}, false
	}
	ts := time.Unix(us/1e6, (us%1e6)*1000)

	var flags uint32
	switch fields[2] {
	case "S":
	case "C":
		flags |= core.FlagCallback
	case "E":
		flags |= core.FlagCallback | core.FlagError
	default:
		return event{}, false
	}

	// Address word: "<type><dir>:<bus>:<device>:<endpoint>", e.g. "Bi:2:004:1".
	addr := fields[3]
	if len(addr) < 2 {
		return event{}, false
	}
	if addr[1] == 'i' {
		flags |= core.FlagDirIn
	}

	if status, err := strconv.Atoi(fields[4]); err == nil {
		// -115 is EINPROGRESS, the normal submission status.
		if flags&core.FlagCallback != 0 && status != 0 {
			flags |= core.FlagError
		}
	}

	// Payload is only present after a "=" marker.
	eq := -1
	for i, f := range fields {
		if f == "=" {
			eq = i
			break
		}
	}
	if eq < 0 || eq == len(fields)-1 {
		return event{}, false
	}

	raw, err := hex.DecodeString(strings.Join(fields[eq+1:], ""))
	if err != nil || len(raw) == 0 {
		return event{}, false
	}

	return event{timestamp: ts, payload: raw, flags: flags}, true
}
