package clipstore

import (
	"encoding/binary"
	"hash/crc32"
)

// CLP1 file format constants: a fixed-size header (LittleEndian fields,
// CRC32-C over the whole header with only the CRC field zeroed) followed by a
// flat array of fixed-width slots, rather than a hash-bucket index.
const (
	clp1Magic = "CLP1"

	clp1Version = 1

	// headerSize is the fixed, page-aligned size of the header block.
	// The mapped file size is always headerSize + nrSnipsAlloc*snipSize.
	headerSize = 4096

	// snipLineSize is the fixed-size UTF-8 buffer holding a snip's first
	// non-blank line, NUL-terminated.
	snipLineSize = 512

	// snipAllocBatch is the number of slots the file grows by whenever
	// capacity is exhausted.
	snipAllocBatch = 64

	// snipSize is the on-disk size of one slot: 8-byte hash + 4-byte
	// nr_lines + 4 bytes padding + the fixed line buffer. Already 8-byte
	// aligned.
	snipSize = 8 + 4 + 4 + snipLineSize
)

// Header field offsets within the fixed headerSize block.
const (
	offMagic        = 0x00 // [4]byte
	offVersion      = 0x04 // uint32
	offHeaderSize   = 0x08 // uint32
	offSnipSize     = 0x0C // uint32
	offSnipLineSize = 0x10 // uint32
	offNrSnips      = 0x18 // uint64
	offNrSnipsAlloc = 0x20 // uint64
	offHeaderCRC32C = 0x28 // uint32
	// Remaining bytes through headerSize are reserved and must be zero.
)

type clp1Header struct {
	Magic        [4]byte
	Version      uint32
	HeaderSize   uint32
	SnipSize     uint32
	SnipLineSize uint32
	NrSnips      uint64
	NrSnipsAlloc uint64
	HeaderCRC32C uint32
}

func newHeader() clp1Header {
	return clp1Header{
		Magic:        [4]byte{'C', 'L', 'P', '1'},
		Version:      clp1Version,
		HeaderSize:   headerSize,
		SnipSize:     snipSize,
		SnipLineSize: snipLineSize,
		NrSnips:      0,
		NrSnipsAlloc: 0,
	}
}

// encodeHeader serializes h into a headerSize-byte buffer, computing and
// storing the CRC.
func encodeHeader(h clp1Header) []byte {
	buf := make([]byte, headerSize)

	copy(buf[offMagic:], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[offVersion:], h.Version)
	binary.LittleEndian.PutUint32(buf[offHeaderSize:], h.HeaderSize)
	binary.LittleEndian.PutUint32(buf[offSnipSize:], h.SnipSize)
	binary.LittleEndian.PutUint32(buf[offSnipLineSize:], h.SnipLineSize)
	binary.LittleEndian.PutUint64(buf[offNrSnips:], h.NrSnips)
	binary.LittleEndian.PutUint64(buf[offNrSnipsAlloc:], h.NrSnipsAlloc)

	crc := computeHeaderCRC(buf)
	binary.LittleEndian.PutUint32(buf[offHeaderCRC32C:], crc)

	return buf
}

func decodeHeader(buf []byte) clp1Header {
	var h clp1Header

	copy(h.Magic[:], buf[offMagic:offMagic+4])
	h.Version = binary.LittleEndian.Uint32(buf[offVersion:])
	h.HeaderSize = binary.LittleEndian.Uint32(buf[offHeaderSize:])
	h.SnipSize = binary.LittleEndian.Uint32(buf[offSnipSize:])
	h.SnipLineSize = binary.LittleEndian.Uint32(buf[offSnipLineSize:])
	h.NrSnips = binary.LittleEndian.Uint64(buf[offNrSnips:])
	h.NrSnipsAlloc = binary.LittleEndian.Uint64(buf[offNrSnipsAlloc:])
	h.HeaderCRC32C = binary.LittleEndian.Uint32(buf[offHeaderCRC32C:])

	return h
}

// computeHeaderCRC computes the CRC32-C of buf with the CRC field itself
// zeroed. NrSnips/NrSnipsAlloc are covered (unlike slotcache's generation
// field) since the header is only ever read/written under the snip file's
// flock, so there is no seqlock-style "in-flight write" state to exclude.
func computeHeaderCRC(buf []byte) uint32 {
	tmp := make([]byte, headerSize)
	copy(tmp, buf)

	for i := offHeaderCRC32C; i < offHeaderCRC32C+4; i++ {
		tmp[i] = 0
	}

	return crc32.Checksum(tmp, crc32.MakeTable(crc32.Castagnoli))
}

func validateHeaderCRC(buf []byte) bool {
	stored := binary.LittleEndian.Uint32(buf[offHeaderCRC32C:])
	return stored == computeHeaderCRC(buf)
}

// encodeSlot serializes a slot (hash, nrLines, line) into a snipSize-byte
// buffer. line is truncated by the caller (see firstLine) before reaching
// here; encodeSlot only pads/NUL-terminates.
func encodeSlot(hash uint64, nrLines uint32, line string) []byte {
	buf := make([]byte, snipSize)

	binary.LittleEndian.PutUint64(buf[0:8], hash)
	binary.LittleEndian.PutUint32(buf[8:12], nrLines)
	// buf[12:16] is padding, left zero.

	lineBytes := []byte(line)
	if len(lineBytes) > snipLineSize-1 {
		lineBytes = lineBytes[:snipLineSize-1]
	}
	copy(buf[16:16+len(lineBytes)], lineBytes)
	// Remaining bytes, including the terminating NUL, are already zero.

	return buf
}

func decodeSlot(buf []byte) (hash uint64, nrLines uint32, line string) {
	hash = binary.LittleEndian.Uint64(buf[0:8])
	nrLines = binary.LittleEndian.Uint32(buf[8:12])

	lineBuf := buf[16 : 16+snipLineSize]
	n := indexNUL(lineBuf)
	line = string(lineBuf[:n])

	return hash, nrLines, line
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}
