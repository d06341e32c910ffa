package grab

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/DataDog/zstd"
	"golang.org/x/crypto/blake2b"

	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/ranges"
)

// The metadata cache is an opaque blob: a fixed header with a checksum
// over the compressed slot table. Loading verifies magic, version and
// checksum before touching the payload.
var slotsMagic = []byte{'L', 'D', 'X', 'S'}

const slotsVersion uint16 = 1

// headerSize is magic + version + blake2b-256 checksum.
const headerSize = 4 + 2 + blake2b.Size256

// encodeMetadata serializes md into the cache blob format.
func encodeMetadata(md *Metadata) ([]byte, error) {
	payload := make([]byte, 0, 16+len(md.Slots)*32)
	payload = binary.LittleEndian.AppendUint64(payload, md.LineCount)
	payload = binary.LittleEndian.AppendUint64(payload, uint64(len(md.Slots)))
	for _, slot := range md.Slots {
		payload = binary.LittleEndian.AppendUint64(payload, slot.Bytes.Start())
		payload = binary.LittleEndian.AppendUint64(payload, slot.Bytes.End())
		payload = binary.LittleEndian.AppendUint64(payload, slot.Lines.Start())
		payload = binary.LittleEndian.AppendUint64(payload, slot.Lines.End())
	}

	compressed, err := zstd.Compress(nil, payload)
	if err != nil {
		return nil, errors.Wrap(err, "compressing metadata")
	}

	blob := make([]byte, 0, headerSize+len(compressed))
	blob = append(blob, slotsMagic...)
	blob = binary.LittleEndian.AppendUint16(blob, slotsVersion)
	sum := blake2b.Sum256(compressed)
	blob = append(blob, sum[:]...)
	return append(blob, compressed...), nil
}

// decodeMetadata parses a cache blob produced by encodeMetadata.
func decodeMetadata(blob []byte) (*Metadata, error) {
	if len(blob) < headerSize {
		return nil, errors.Wrap(errors.ErrMetadataCorrupt, "blob too short")
	}
	if !bytes.Equal(blob[:4], slotsMagic) {
		return nil, errors.Wrap(errors.ErrMetadataCorrupt, "bad magic")
	}
	if version := binary.LittleEndian.Uint16(blob[4:6]); version != slotsVersion {
		return nil, errors.Wrapf(errors.ErrMetadataCorrupt,
			"unsupported version %d", version)
	}
	compressed := blob[headerSize:]
	sum := blake2b.Sum256(compressed)
	if !bytes.Equal(blob[6:headerSize], sum[:]) {
		return nil, errors.Wrap(errors.ErrMetadataCorrupt, "checksum mismatch")
	}

	payload, err := zstd.Decompress(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMetadataCorrupt, err.Error())
	}
	if len(payload) < 16 {
		return nil, errors.Wrap(errors.ErrMetadataCorrupt, "payload too short")
	}
	md := &Metadata{LineCount: binary.LittleEndian.Uint64(payload[:8])}
	count := binary.LittleEndian.Uint64(payload[8:16])
	if uint64(len(payload)-16) != count*32 {
		return nil, errors.Wrap(errors.ErrMetadataCorrupt, "slot table truncated")
	}
	md.Slots = make([]Slot, 0, count)
	at := 16
	for i := uint64(0); i < count; i++ {
		md.Slots = append(md.Slots, Slot{
			Bytes: ranges.NewByteRange(
				binary.LittleEndian.Uint64(payload[at:at+8]),
				binary.LittleEndian.Uint64(payload[at+8:at+16])),
			Lines: ranges.NewLineRange(
				binary.LittleEndian.Uint64(payload[at+16:at+24]),
				binary.LittleEndian.Uint64(payload[at+24:at+32])),
		})
		at += 32
	}
	return md, nil
}

// ExportSlots serializes the grabber's metadata to outPath. The blob is
// opaque to callers; only LoadMetadata understands it.
func (g *Grabber[T]) ExportSlots(outPath string) error {
	if g.metadata == nil {
		return errors.ErrNotInitialized
	}
	blob, err := encodeMetadata(g.metadata)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, blob, 0644)
}

// LoadMetadata replaces the grabber's metadata with the deserialized
// contents of a previously exported cache file.
func (g *Grabber[T]) LoadMetadata(slotsPath string) error {
	blob, err := os.ReadFile(slotsPath)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfig,
			"could not open slot file: "+err.Error())
	}
	md, err := decodeMetadata(blob)
	if err != nil {
		return err
	}
	g.metadata = md
	return nil
}
