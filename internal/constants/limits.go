package constants

// Numeric limits and thresholds
const (
	// DltPatternSize is the size of the DLT storage header sync pattern.
	// After a recoverable parse error the reader advances by this many
	// bytes to resynchronize on the next storage header.
	DltPatternSize = 4

	// StopCheckThreshold is the number of messages the statistics scanner
	// processes between cancellation checks and progress updates.
	StopCheckThreshold = 250_000

	// DefaultChunkSize is the default chunk size in lines.
	DefaultChunkSize = 500

	// ChannelCapacity is the capacity of result channels. Channels are
	// unbounded by convention; the capacity only decouples producer and
	// consumer pacing.
	ChannelCapacity = 1024
)
