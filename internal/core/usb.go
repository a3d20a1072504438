package core

// USB packet identifiers, as they appear in the first payload byte of a raw
// captured packet. Values include the 4-bit check field in the high nibble.
const (
	PIDOut   byte = 0xE1
	PIDIn    byte = 0x69
	PIDSOF   byte = 0xA5
	PIDSetup byte = 0x2D

	PIDData0 byte = 0xC3
	PIDData1 byte = 0x4B

	PIDAck   byte = 0xD2
	PIDNak   byte = 0x5A
	PIDStall byte = 0x1E
)

var pidNames = map[byte]string{
	PIDOut:   "OUT",
	PIDIn:    "IN",
	PIDSOF:   "SOF",
	PIDSetup: "SETUP",
	PIDData0: "DATA0",
	PIDData1: "DATA1",
	PIDAck:   "ACK",
	PIDNak:   "NAK",
	PIDStall: "STALL",
}

// PIDName returns a human-readable name for a USB packet identifier byte,
// or "UNK" for anything it does not recognize.
func PIDName(pid byte) string {
	if name, ok := pidNames[pid]; ok {
		return name
	}
	return "UNK"
}
