package pool

import (
	"bytes"
	"sync"
)

// BytesBuffer is there to optimize memory allocations. Formatting DLT
// lines during indexing otherwise allocates a lot of short-lived buffers.
var BytesBuffer = sync.Pool{
	New: func() interface{} {
		b := bytes.Buffer{}
		// Most log lines are between 100-500 bytes, but some can be larger
		b.Grow(4096)
		return &b
	},
}

// RecycleBytesBuffer recycles the buffer again.
func RecycleBytesBuffer(b *bytes.Buffer) {
	b.Reset()
	BytesBuffer.Put(b)
}
