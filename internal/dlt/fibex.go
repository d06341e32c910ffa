package dlt

// FibexMetadata is the type catalog used to resolve non-verbose payloads.
// It maps a message id to the static frame description that names the
// message and its signals. Loading the catalog from FIBEX XML is the job
// of an external collaborator; this package only consumes the lookup.
type FibexMetadata struct {
	Frames map[uint32]FibexFrame
}

// FibexFrame describes one non-verbose message.
type FibexFrame struct {
	Name    string
	AppID   string
	Context string
	// SignalNames label the payload signals in wire order.
	SignalNames []string
}

// Lookup resolves a message id, returning false when the catalog does not
// describe it.
func (m *FibexMetadata) Lookup(messageID uint32) (FibexFrame, bool) {
	if m == nil || m.Frames == nil {
		return FibexFrame{}, false
	}
	frame, ok := m.Frames[messageID]
	return frame, ok
}

// FibexConfig names the FIBEX files a catalog is gathered from.
type FibexConfig struct {
	FibexFilePaths []string
}
