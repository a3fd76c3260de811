package clipstore

import "testing"

func TestEncodeDecodeHeader_RoundTrip(t *testing.T) {
	h := newHeader()
	h.NrSnips = 3
	h.NrSnipsAlloc = 64

	buf := encodeHeader(h)
	got := decodeHeader(buf)

	if got.NrSnips != h.NrSnips || got.NrSnipsAlloc != h.NrSnipsAlloc {
		t.Fatalf("decodeHeader round trip mismatch: %+v vs %+v", got, h)
	}

	if string(got.Magic[:]) != clp1Magic {
		t.Fatalf("magic mismatch: %q", got.Magic)
	}

	if !validateHeaderCRC(buf) {
		t.Fatal("expected valid CRC after encodeHeader")
	}
}

func TestValidateHeaderCRC_DetectsCorruption(t *testing.T) {
	buf := encodeHeader(newHeader())

	buf[offMagic] ^= 0xFF

	if validateHeaderCRC(buf) {
		t.Fatal("expected CRC mismatch after corrupting header bytes")
	}
}

func TestEncodeDecodeSlot_RoundTrip(t *testing.T) {
	buf := encodeSlot(0xDEADBEEF, 3, "hello world")

	hash, nrLines, line := decodeSlot(buf)

	if hash != 0xDEADBEEF || nrLines != 3 || line != "hello world" {
		t.Fatalf("decodeSlot round trip mismatch: hash=%x nrLines=%d line=%q", hash, nrLines, line)
	}
}

func TestEncodeSlot_TruncatesOverlongLine(t *testing.T) {
	long := make([]byte, snipLineSize*2)
	for i := range long {
		long[i] = 'a'
	}

	buf := encodeSlot(1, 1, string(long))

	_, _, line := decodeSlot(buf)

	if len(line) != snipLineSize-1 {
		t.Fatalf("expected encoded line length %d, got %d", snipLineSize-1, len(line))
	}
}

func TestSnipSize_Is8ByteAligned(t *testing.T) {
	if snipSize%8 != 0 {
		t.Fatalf("snipSize %d is not 8-byte aligned", snipSize)
	}
}
