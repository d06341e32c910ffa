package config

// IndexingConfig describes one indexing run.
type IndexingConfig struct {
	// Tag is prepended to every output line of this run.
	Tag string
	// ChunkSize is the chunk size in lines.
	ChunkSize uint64
	// InFile is the path of the source file.
	InFile string
	// OutPath is the path of the tagged output file.
	OutPath string
	// Append continues an existing output file instead of truncating it.
	Append bool
	// Watch keeps the run alive at EOF and resumes on file writes.
	Watch bool
}

// Section names an inclusive range of logical lines (one DLT message per
// line) to be exported.
type Section struct {
	FirstLine uint64
	LastLine  uint64
}

// SectionConfig lists the sections an export run copies, in order. An
// empty list means the entire file.
type SectionConfig struct {
	Sections []Section
}
