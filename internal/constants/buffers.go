package constants

// Buffer size constants in bytes
const (
	// DltReaderCapacity is the read buffer capacity for DLT sources (10MB)
	DltReaderCapacity = 10 * 1024 * 1024

	// TextReaderCapacity is the read buffer capacity for text sources (1MB)
	TextReaderCapacity = 1024 * 1024

	// MinBufferSpace is the minimum number of buffered bytes a refill has
	// to deliver before EOF (10KB). Parsers rely on this: a shorter refill
	// reliably means end of stream.
	MinBufferSpace = 10 * 1024

	// LineCountChunkSize is the read chunk size for newline counting (100KB)
	LineCountChunkSize = 100 * 1024

	// WriterCapacity is the output buffer capacity of the indexer (10MB)
	WriterCapacity = 10 * 1024 * 1024
)
