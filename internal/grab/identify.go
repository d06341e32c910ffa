package grab

import (
	"github.com/logdex/logdex/internal/ranges"
)

// identifyByteRange finds the byte region that has to be read so that all
// content of lines is captured: the slots containing the first and last
// requested line span it. It also reports how many lines the region holds
// and how many need to be skipped at the beginning and dropped at the end
// to get only the desired content.
func identifyByteRange(slots []Slot, lines ranges.LineRange) (FilePart, bool) {
	if lines.IsEmpty() {
		return FilePart{}, false
	}
	startSlot, ok := identifyStartSlot(slots, lines.Start())
	if !ok {
		return FilePart{}, false
	}
	endSlot, ok := identifyEndSlot(slots, lines.End())
	if !ok {
		return FilePart{}, false
	}
	return FilePart{
		OffsetInFile: startSlot.Bytes.Start(),
		Length:       endSlot.Bytes.End() - startSlot.Bytes.Start() + 1,
		TotalLines:   endSlot.Lines.End() - startSlot.Lines.Start() + 1,
		LinesToSkip:  lines.Start() - startSlot.Lines.Start(),
		LinesToDrop:  endSlot.Lines.End() - lines.End(),
	}, true
}

// identifyStartSlot scans forward for the slot containing lineIndex.
func identifyStartSlot(slots []Slot, lineIndex uint64) (Slot, bool) {
	for _, slot := range slots {
		if slot.Lines.Contains(lineIndex) {
			return slot, true
		}
	}
	return Slot{}, false
}

// identifyEndSlot scans backward for the slot containing lineIndex.
func identifyEndSlot(slots []Slot, lineIndex uint64) (Slot, bool) {
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i].Lines.Contains(lineIndex) {
			return slots[i], true
		}
	}
	return Slot{}, false
}

// identifyStartSlotBinary is the binary-search variant of
// identifyStartSlot. It requires the slot vector to be sorted by line
// range and agrees with the linear scan when no two slots share a line.
// Where several slots carry the same line (one overlong line), it may
// return any of them rather than the first.
func identifyStartSlotBinary(slots []Slot, lineIndex uint64) (Slot, bool) {
	lo, hi := 0, len(slots)
	for lo < hi {
		mid := (lo + hi) / 2
		slot := slots[mid]
		switch {
		case slot.Lines.Contains(lineIndex):
			return slot, true
		case lineIndex < slot.Lines.Start():
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return Slot{}, false
}
