package dlt

import (
	"bytes"
)

// LevelDistribution counts how often each log level occurred for one id.
type LevelDistribution struct {
	NonLog     uint64
	LogFatal   uint64
	LogError   uint64
	LogWarning uint64
	LogInfo    uint64
	LogDebug   uint64
	LogVerbose uint64
	LogInvalid uint64
}

// Add increments the counter for the given level. hasLevel false counts as
// a non-log message.
func (d *LevelDistribution) Add(level LogLevel, hasLevel bool) {
	switch {
	case !hasLevel:
		d.NonLog++
	case level == LevelFatal:
		d.LogFatal++
	case level == LevelError:
		d.LogError++
	case level == LevelWarn:
		d.LogWarning++
	case level == LevelInfo:
		d.LogInfo++
	case level == LevelDebug:
		d.LogDebug++
	case level == LevelVerbose:
		d.LogVerbose++
	default:
		d.LogInvalid++
	}
}

// IdMap maps an application, context or ECU id to its level histogram.
type IdMap map[string]*LevelDistribution

// AddForLevel accounts one message with the given level under id.
func (m IdMap) AddForLevel(id string, level LogLevel, hasLevel bool) {
	dist, ok := m[id]
	if !ok {
		dist = &LevelDistribution{}
		m[id] = dist
	}
	dist.Add(level, hasLevel)
}

// StatisticInfo aggregates the per-id level histograms of one file.
type StatisticInfo struct {
	AppIDs     IdMap
	ContextIDs IdMap
	EcuIDs     IdMap
	// ContainedNonVerbose records whether any non-verbose message was
	// seen; consumers use it to suggest loading a FIBEX catalog.
	ContainedNonVerbose bool
}

// NewStatisticInfo creates an empty StatisticInfo.
func NewStatisticInfo() *StatisticInfo {
	return &StatisticInfo{
		AppIDs:     make(IdMap),
		ContextIDs: make(IdMap),
		EcuIDs:     make(IdMap),
	}
}

// StatisticRowInfo is the header-only digest of one message, enough to
// update the statistics without decoding the payload.
type StatisticRowInfo struct {
	AppID     string
	ContextID string
	HasIDs    bool
	EcuID     string
	Level     LogLevel
	HasLevel  bool
	Verbose   bool
}

// ParseStatisticRowInfo reads only the headers of the message at the
// beginning of input and returns the number of bytes the whole message
// occupies, so that the caller can skip straight to the next one.
func ParseStatisticRowInfo(input []byte, withStorageHeader bool) (uint64, StatisticRowInfo, error) {
	var row StatisticRowInfo
	rest := input
	consumed := uint64(0)

	if withStorageHeader {
		if len(rest) < StorageHeaderSize {
			return 0, row, incomplete(StorageHeaderSize-len(rest), "storage header")
		}
		if !bytes.Equal(rest[:StoragePatternSize], storagePattern) {
			return 0, row, hickup("missing storage header sync pattern")
		}
		row.EcuID = trimID(rest[12:16])
		rest = rest[StorageHeaderSize:]
		consumed += StorageHeaderSize
	}

	if len(rest) < 4 {
		return 0, row, incomplete(4-len(rest), "standard header")
	}
	header, headerSize, err := parseStandardHeader(rest)
	if err != nil {
		return 0, row, err
	}
	if int(header.Length) < headerSize {
		return 0, row, hickup("message length %d shorter than header %d",
			header.Length, headerSize)
	}
	if len(rest) < int(header.Length) {
		return 0, row, incomplete(int(header.Length)-len(rest), "message body")
	}
	if header.EcuID != "" {
		row.EcuID = header.EcuID
	}

	if header.HasExtended {
		body := rest[headerSize:]
		if len(body) < 10 {
			return 0, row, hickup("extended header truncated (%d bytes)", len(body))
		}
		extended := parseExtendedHeader(body)
		row.AppID = extended.AppID
		row.ContextID = extended.ContextID
		row.HasIDs = true
		row.Verbose = extended.Verbose
		if level, ok := extended.LogLevel(); ok {
			row.Level = level
			row.HasLevel = true
		}
	}

	consumed += uint64(header.Length)
	return consumed, row, nil
}
