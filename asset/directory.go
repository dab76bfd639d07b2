package asset

import (
	"encoding/binary"
	"fmt"
)

// Bundle container format: a fixed-size header, the entries' raw bytes back
// to back, and a trailing central directory listing each entry's name,
// offset, and size — the same zip-like split between data and a tail index
// as pkg/mcf's MCFHeader/MCFSection layout, adapted to name-addressed
// entries instead of typed sections, and decoded with encoding/binary
// instead of mcf's unsafe struct casts since entry names are variable
// length.
const (
	magic          = "EGB\x00"
	headerSize     = 4 + 4 + 4 + 8 + 8 // magic + version + entryCount + directoryOffset + fileSize
	currentVersion = 1
)

// parseDirectory validates the header and trailing central directory of a
// mapped bundle and returns every entry keyed by name, plus the names in
// their on-disk order.
func parseDirectory(data []byte) (map[string]Entry, []string, error) {
	if len(data) < headerSize {
		return nil, nil, fmt.Errorf("bundle too small for header: %d bytes", len(data))
	}
	if string(data[:4]) != magic {
		return nil, nil, fmt.Errorf("bad magic %q", data[:4])
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != currentVersion {
		return nil, nil, fmt.Errorf("unsupported bundle version %d", version)
	}
	entryCount := binary.LittleEndian.Uint32(data[8:12])
	dirOffset := binary.LittleEndian.Uint64(data[12:20])
	fileSize := binary.LittleEndian.Uint64(data[20:28])

	if fileSize != uint64(len(data)) {
		return nil, nil, fmt.Errorf("declared file size %d does not match mapped size %d", fileSize, len(data))
	}
	if dirOffset < headerSize || dirOffset > fileSize {
		return nil, nil, fmt.Errorf("directory offset %d out of bounds", dirOffset)
	}

	dir := make(map[string]Entry, entryCount)
	names := make([]string, 0, entryCount)

	pos := dirOffset
	for i := uint32(0); i < entryCount; i++ {
		rec, next, err := decodeDirectoryRecord(data, pos)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if rec.end() > fileSize {
			return nil, nil, fmt.Errorf("entry %q data range [%d,%d) exceeds file size %d", rec.name, rec.offset, rec.end(), fileSize)
		}
		if rec.offset < headerSize {
			return nil, nil, fmt.Errorf("entry %q overlaps the header", rec.name)
		}
		if _, dup := dir[rec.name]; dup {
			return nil, nil, fmt.Errorf("duplicate entry name %q", rec.name)
		}

		dir[rec.name] = Entry{Name: rec.name, Data: data[rec.offset:rec.end()]}
		names = append(names, rec.name)
		pos = next
	}

	return dir, names, nil
}

type directoryRecord struct {
	name   string
	offset uint64
	size   uint64
}

func (r directoryRecord) end() uint64 { return r.offset + r.size }

func decodeDirectoryRecord(data []byte, pos uint64) (directoryRecord, uint64, error) {
	if pos+2 > uint64(len(data)) {
		return directoryRecord{}, 0, fmt.Errorf("truncated directory record at offset %d", pos)
	}
	nameLen := uint64(binary.LittleEndian.Uint16(data[pos : pos+2]))
	pos += 2

	if pos+nameLen+16 > uint64(len(data)) {
		return directoryRecord{}, 0, fmt.Errorf("truncated directory record at offset %d", pos)
	}
	name := string(data[pos : pos+nameLen])
	pos += nameLen

	offset := binary.LittleEndian.Uint64(data[pos : pos+8])
	size := binary.LittleEndian.Uint64(data[pos+8 : pos+16])
	pos += 16

	return directoryRecord{name: name, offset: offset, size: size}, pos, nil
}
