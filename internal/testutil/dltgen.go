package testutil

import (
	"encoding/binary"
	"strconv"
)

// DltMessageSpec describes one synthetic DLT message for tests.
type DltMessageSpec struct {
	EcuID     string
	AppID     string
	ContextID string
	Level     uint8 // 1=fatal .. 6=verbose
	Text      string
	Seconds   uint32
	Timestamp uint32
}

// BuildDltMessage serializes one well-formed DLT message: storage header,
// standard header with ECU and timestamp, extended header (verbose log)
// and a single string payload argument.
func BuildDltMessage(spec DltMessageSpec) []byte {
	text := append([]byte(spec.Text), 0)
	payload := make([]byte, 0, 6+len(text))
	payload = binary.LittleEndian.AppendUint32(payload, 0x00000200) // STRG
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(text)))
	payload = append(payload, text...)

	extended := make([]byte, 0, 10)
	extended = append(extended, 0x01|uint8(spec.Level)<<4) // verbose log
	extended = append(extended, 1)                         // one argument
	extended = append(extended, padID(spec.AppID)...)
	extended = append(extended, padID(spec.ContextID)...)

	// Standard header: UEH | WEID | WTMS, version 1.
	length := 4 + 4 + 4 + len(extended) + len(payload)
	standard := make([]byte, 0, 12)
	standard = append(standard, 0x01|0x04|0x10|0x20, 0)
	standard = binary.BigEndian.AppendUint16(standard, uint16(length))
	standard = append(standard, padID(spec.EcuID)...)
	standard = binary.BigEndian.AppendUint32(standard, spec.Timestamp)

	storage := make([]byte, 0, 16)
	storage = append(storage, 'D', 'L', 'T', 0x01)
	storage = binary.LittleEndian.AppendUint32(storage, spec.Seconds)
	storage = binary.LittleEndian.AppendUint32(storage, 0)
	storage = append(storage, padID(spec.EcuID)...)

	msg := append(storage, standard...)
	msg = append(msg, extended...)
	return append(msg, payload...)
}

// BuildDltFile concatenates count messages with ascending sequence texts
// and capture times.
func BuildDltFile(count int, spec DltMessageSpec) []byte {
	var out []byte
	for i := 0; i < count; i++ {
		s := spec
		s.Text = spec.Text + "-" + strconv.Itoa(i)
		s.Seconds = spec.Seconds + uint32(i)
		out = append(out, BuildDltMessage(s)...)
	}
	return out
}

func padID(id string) []byte {
	padded := make([]byte, 4)
	copy(padded, id)
	return padded
}
