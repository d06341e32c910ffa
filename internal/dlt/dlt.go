// Package dlt implements the Diagnostic Log and Trace binary wire format
// as consumed by the indexing engines: message parsing with recovery
// classification, cheap header-only scanning for statistics, framing
// helpers for byte-exact partitioning, and line formatting.
//
// Each message on the wire is framed by a storage header (16 bytes,
// starting with the sync pattern "DLT\x01") followed by a standard header
// whose length field covers the standard header, the optional extended
// header and the payload.
package dlt

import (
	"fmt"
	"time"
)

// Storage header layout.
const (
	// StoragePatternSize is the size of the "DLT\x01" sync pattern.
	StoragePatternSize = 4
	// StorageHeaderSize is the total size of a storage header.
	StorageHeaderSize = 16
)

var storagePattern = []byte{'D', 'L', 'T', 0x01}

// Header type flags of the standard header.
const (
	htypUEH  = 1 << 0 // use extended header
	htypMSBF = 1 << 1 // payload in big endian
	htypWEID = 1 << 2 // with ECU id
	htypWSID = 1 << 3 // with session id
	htypWTMS = 1 << 4 // with timestamp
)

// StorageHeader prefixes each message in a DLT file and records when the
// message was captured and by which ECU.
type StorageHeader struct {
	Seconds      uint32
	Microseconds int32
	EcuID        string
}

// Time returns the capture time of the message.
func (h StorageHeader) Time() time.Time {
	return time.Unix(int64(h.Seconds), int64(h.Microseconds)*1000)
}

// StandardHeader is the mandatory header of every DLT message.
type StandardHeader struct {
	Version        uint8
	MessageCounter uint8
	// Length covers the standard header, the extended header and the
	// payload, but not the storage header.
	Length       uint16
	BigEndian    bool
	HasExtended  bool
	EcuID        string // empty if absent
	SessionID    uint32 // valid if HasSessionID
	HasSessionID bool
	Timestamp    uint32 // 0.1ms units, valid if HasTimestamp
	HasTimestamp bool
}

// MessageType classifies a message per its extended header.
type MessageType uint8

// Message types (MSTP).
const (
	TypeLog MessageType = iota
	TypeAppTrace
	TypeNetworkTrace
	TypeControl
)

func (t MessageType) String() string {
	switch t {
	case TypeLog:
		return "log"
	case TypeAppTrace:
		return "app-trace"
	case TypeNetworkTrace:
		return "network-trace"
	case TypeControl:
		return "control"
	}
	return fmt.Sprintf("reserved(%d)", uint8(t))
}

// LogLevel is the level of a log-type message.
type LogLevel uint8

// Log levels as carried in the message-type-info field.
const (
	LevelFatal   LogLevel = 1
	LevelError   LogLevel = 2
	LevelWarn    LogLevel = 3
	LevelInfo    LogLevel = 4
	LevelDebug   LogLevel = 5
	LevelVerbose LogLevel = 6
)

// Valid reports whether the level is one of the six defined levels.
func (l LogLevel) Valid() bool {
	return l >= LevelFatal && l <= LevelVerbose
}

func (l LogLevel) String() string {
	switch l {
	case LevelFatal:
		return "FATAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelVerbose:
		return "VERBOSE"
	}
	return fmt.Sprintf("INVALID(%d)", uint8(l))
}

// ExtendedHeader carries the application/context ids and the message
// classification.
type ExtendedHeader struct {
	Verbose   bool
	Type      MessageType
	TypeInfo  uint8 // MTIN: log level or trace/control info
	ArgCount  uint8
	AppID     string
	ContextID string
}

// LogLevel returns the log level of a log-type message.
func (h ExtendedHeader) LogLevel() (LogLevel, bool) {
	if h.Type != TypeLog {
		return 0, false
	}
	return LogLevel(h.TypeInfo), true
}

// Message is one fully parsed DLT message.
type Message struct {
	Storage  *StorageHeader
	Header   StandardHeader
	Extended *ExtendedHeader
	Payload  Payload
}

// Verbose reports whether the message carries a verbose payload.
func (m *Message) Verbose() bool {
	return m.Extended != nil && m.Extended.Verbose
}

// EcuID returns the most specific ECU id of the message.
func (m *Message) EcuID() string {
	if m.Header.EcuID != "" {
		return m.Header.EcuID
	}
	if m.Storage != nil {
		return m.Storage.EcuID
	}
	return ""
}
