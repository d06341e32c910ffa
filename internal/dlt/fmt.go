package dlt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/logdex/logdex/internal/io/pool"
	"github.com/logdex/logdex/internal/protocol"
)

// FormatOptions control how a message is rendered to one output line.
type FormatOptions struct {
	// TZ is the timezone storage timestamps are rendered in. Nil means
	// UTC.
	TZ *time.Location
}

// FormattableMessage couples a parsed message with the metadata needed to
// render it: the optional FIBEX catalog for non-verbose payloads and the
// format options.
type FormattableMessage struct {
	Message *Message
	Fibex   *FibexMetadata
	Options *FormatOptions
}

const storageTimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// String renders the message as one line: storage time, ECU, monotonic
// timestamp, app id, context id, message classification and payload,
// joined by the column sentinel. One line is rendered per indexed message,
// so assembly goes through the shared buffer pool.
func (f FormattableMessage) String() string {
	m := f.Message
	b := pool.BytesBuffer.Get().(*bytes.Buffer)
	defer pool.RecycleBytesBuffer(b)

	if m.Storage != nil {
		loc := time.UTC
		if f.Options != nil && f.Options.TZ != nil {
			loc = f.Options.TZ
		}
		b.WriteString(m.Storage.Time().In(loc).Format(storageTimeFormat))
	} else {
		b.WriteByte('-')
	}
	b.WriteRune(protocol.ColumnSentinel)

	b.WriteString(orNone(m.EcuID()))
	b.WriteRune(protocol.ColumnSentinel)

	if m.Header.HasTimestamp {
		// Monotonic timestamp ticks are 0.1ms.
		fmt.Fprintf(b, "%d.%04d", m.Header.Timestamp/10000, m.Header.Timestamp%10000)
	} else {
		b.WriteByte('-')
	}
	b.WriteRune(protocol.ColumnSentinel)

	if m.Extended != nil {
		b.WriteString(orNone(m.Extended.AppID))
		b.WriteRune(protocol.ColumnSentinel)
		b.WriteString(orNone(m.Extended.ContextID))
		b.WriteRune(protocol.ColumnSentinel)
		if level, ok := m.Extended.LogLevel(); ok {
			b.WriteString(level.String())
		} else {
			b.WriteString(m.Extended.Type.String())
		}
	} else {
		b.WriteByte('-')
		b.WriteRune(protocol.ColumnSentinel)
		b.WriteByte('-')
		b.WriteRune(protocol.ColumnSentinel)
		b.WriteByte('-')
	}
	b.WriteRune(protocol.ColumnSentinel)

	f.formatPayload(b)
	return b.String()
}

func (f FormattableMessage) formatPayload(b *bytes.Buffer) {
	p := f.Message.Payload
	if p.Verbose {
		for i, arg := range p.Args {
			if i > 0 {
				b.WriteRune(protocol.ArgSentinel)
			}
			b.WriteString(arg.String())
		}
		return
	}

	if frame, ok := f.Fibex.Lookup(p.MessageID); ok {
		b.WriteString(frame.Name)
		if len(p.Data) > 0 {
			b.WriteRune(protocol.ArgSentinel)
			b.WriteString(hexDump(p.Data))
		}
		return
	}
	fmt.Fprintf(b, "[%d]", p.MessageID)
	if len(p.Data) > 0 {
		b.WriteRune(protocol.ArgSentinel)
		b.WriteString(hexDump(p.Data))
	}
}

func orNone(id string) string {
	if id == "" {
		return "NONE"
	}
	return id
}
