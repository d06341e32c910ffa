package dlt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// ParseErrorKind classifies how a parse attempt failed.
type ParseErrorKind int

const (
	// Hickup marks a recoverable framing error: one message is garbled,
	// scanning can continue after resyncing on the next storage header.
	Hickup ParseErrorKind = iota
	// Incomplete marks a buffer that ended mid-message.
	Incomplete
	// Unrecoverable marks a fatal condition for the current run.
	Unrecoverable
)

// ParseError is the error type of all parse operations.
type ParseError struct {
	Kind   ParseErrorKind
	Reason string
	// Needed is the number of missing bytes for an Incomplete error,
	// 0 if unknown.
	Needed int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case Hickup:
		return fmt.Sprintf("parsing hickup: %s", e.Reason)
	case Incomplete:
		if e.Needed > 0 {
			return fmt.Sprintf("incomplete parse: %s (needed: %d)", e.Reason, e.Needed)
		}
		return fmt.Sprintf("incomplete parse: %s (needed: unknown)", e.Reason)
	}
	return fmt.Sprintf("unrecoverable parse error: %s", e.Reason)
}

func hickup(format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: Hickup, Reason: fmt.Sprintf(format, args...)}
}

func incomplete(needed int, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: Incomplete, Needed: needed, Reason: fmt.Sprintf(format, args...)}
}

// ParsedKind discriminates the outcome of one message parse.
type ParsedKind int

const (
	// Item is a message that belongs into the output.
	Item ParsedKind = iota
	// Invalid is a recognized message that must not appear in output.
	Invalid
	// FilteredOut is a valid message rejected by the filter config.
	FilteredOut
)

// ParsedMessage is the outcome of one successful parse: either a message,
// or the statement that a recognized message is to be skipped.
type ParsedMessage struct {
	Kind    ParsedKind
	Message *Message
}

// Parse parses one message from the beginning of input. It returns the
// rest of the input after the message. The filter may be nil. When
// withStorageHeader is set, each message must be prefixed by a storage
// header; its sync pattern is also the resync unit after a Hickup.
func Parse(input []byte, filter *ProcessedFilterConfig, withStorageHeader bool) ([]byte, ParsedMessage, error) {
	rest := input
	var storage *StorageHeader
	if withStorageHeader {
		var err error
		rest, storage, err = parseStorageHeader(rest)
		if err != nil {
			return input, ParsedMessage{}, err
		}
	}

	if len(rest) < 4 {
		return input, ParsedMessage{}, incomplete(4-len(rest), "standard header")
	}
	header, headerSize, err := parseStandardHeader(rest)
	if err != nil {
		return input, ParsedMessage{}, err
	}
	if int(header.Length) < headerSize {
		return input, ParsedMessage{}, hickup("message length %d shorter than header %d",
			header.Length, headerSize)
	}
	if len(rest) < int(header.Length) {
		return input, ParsedMessage{}, incomplete(int(header.Length)-len(rest), "message body")
	}
	body := rest[headerSize:header.Length]
	rest = rest[header.Length:]

	var extended *ExtendedHeader
	if header.HasExtended {
		if len(body) < 10 {
			return input, ParsedMessage{}, hickup("extended header truncated (%d bytes)", len(body))
		}
		extended = parseExtendedHeader(body)
		body = body[10:]
	}

	msg := &Message{
		Storage:  storage,
		Header:   header,
		Extended: extended,
	}
	msg.Payload = parsePayload(body, extended, header.BigEndian)

	if filter != nil && !filter.matches(msg) {
		return rest, ParsedMessage{Kind: FilteredOut}, nil
	}
	return rest, ParsedMessage{Kind: Item, Message: msg}, nil
}

func parseStorageHeader(input []byte) ([]byte, *StorageHeader, error) {
	if len(input) < StorageHeaderSize {
		return input, nil, incomplete(StorageHeaderSize-len(input), "storage header")
	}
	if !bytes.Equal(input[:StoragePatternSize], storagePattern) {
		return input, nil, hickup("missing storage header sync pattern")
	}
	h := &StorageHeader{
		Seconds:      binary.LittleEndian.Uint32(input[4:8]),
		Microseconds: int32(binary.LittleEndian.Uint32(input[8:12])),
		EcuID:        trimID(input[12:16]),
	}
	return input[StorageHeaderSize:], h, nil
}

// parseStandardHeader parses the standard header and returns it together
// with its size including optional fields.
func parseStandardHeader(input []byte) (StandardHeader, int, error) {
	htyp := input[0]
	h := StandardHeader{
		Version:        (htyp >> 5) & 0x07,
		MessageCounter: input[1],
		Length:         binary.BigEndian.Uint16(input[2:4]),
		BigEndian:      htyp&htypMSBF != 0,
		HasExtended:    htyp&htypUEH != 0,
	}
	size := 4
	if htyp&htypWEID != 0 {
		size += 4
	}
	if htyp&htypWSID != 0 {
		size += 4
	}
	if htyp&htypWTMS != 0 {
		size += 4
	}
	if len(input) < size {
		return h, size, incomplete(size-len(input), "standard header optionals")
	}
	at := 4
	if htyp&htypWEID != 0 {
		h.EcuID = trimID(input[at : at+4])
		at += 4
	}
	if htyp&htypWSID != 0 {
		h.SessionID = binary.BigEndian.Uint32(input[at : at+4])
		h.HasSessionID = true
		at += 4
	}
	if htyp&htypWTMS != 0 {
		h.Timestamp = binary.BigEndian.Uint32(input[at : at+4])
		h.HasTimestamp = true
	}
	return h, size, nil
}

func parseExtendedHeader(body []byte) *ExtendedHeader {
	msin := body[0]
	return &ExtendedHeader{
		Verbose:   msin&0x01 != 0,
		Type:      MessageType((msin >> 1) & 0x07),
		TypeInfo:  (msin >> 4) & 0x0f,
		ArgCount:  body[1],
		AppID:     trimID(body[2:6]),
		ContextID: trimID(body[6:10]),
	}
}

// ConsumeMessage determines the framing length of the message at the
// beginning of input without decoding its payload. It returns the number
// of bytes the message occupies including its storage header.
func ConsumeMessage(input []byte) (uint64, error) {
	if len(input) < StorageHeaderSize+4 {
		return 0, incomplete(StorageHeaderSize+4-len(input), "message frame")
	}
	if !bytes.Equal(input[:StoragePatternSize], storagePattern) {
		return 0, hickup("missing storage header sync pattern")
	}
	length := binary.BigEndian.Uint16(input[StorageHeaderSize+2 : StorageHeaderSize+4])
	consumed := uint64(StorageHeaderSize) + uint64(length)
	if uint64(len(input)) < consumed {
		return 0, incomplete(int(consumed)-len(input), "message body")
	}
	return consumed, nil
}

// SkipStorageHeader validates and skips the storage header at the
// beginning of input, returning the rest and the number of skipped bytes.
func SkipStorageHeader(input []byte) ([]byte, uint64, error) {
	if len(input) < StorageHeaderSize {
		return input, 0, incomplete(StorageHeaderSize-len(input), "storage header")
	}
	if !bytes.Equal(input[:StoragePatternSize], storagePattern) {
		return input, 0, hickup("missing storage header sync pattern")
	}
	return input[StorageHeaderSize:], StorageHeaderSize, nil
}

// ForwardToNextStorageHeader finds the next storage header sync pattern in
// input and returns how many bytes precede it. The second return value is
// false when no further pattern exists.
func ForwardToNextStorageHeader(input []byte) (uint64, bool) {
	idx := bytes.Index(input, storagePattern)
	if idx < 0 {
		return 0, false
	}
	return uint64(idx), true
}

func trimID(raw []byte) string {
	return strings.TrimRight(string(raw), "\x00")
}
