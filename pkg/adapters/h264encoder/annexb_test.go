package h264encoder

import (
	"bytes"
	"testing"
)

func nal(typ byte, payload ...byte) []byte {
	return append([]byte{typ}, payload...)
}

func annexB(nalus ...[]byte) []byte {
	var out []byte
	for i, n := range nalus {
		if i%2 == 0 {
			out = append(out, 0, 0, 0, 1)
		} else {
			out = append(out, 0, 0, 1)
		}
		out = append(out, n...)
	}
	return out
}

func TestParseAnnexB(t *testing.T) {
	sps := nal(0x67, 0x42, 0xC0, 0x1E)
	pps := nal(0x68, 0xCE, 0x3C, 0x80)
	idr := nal(0x65, 0x88, 0x84)

	got := parseAnnexB(annexB(sps, pps, idr))
	if len(got) != 3 {
		t.Fatalf("expected 3 NAL units, got %d", len(got))
	}
	if !bytes.Equal(got[0], sps) || !bytes.Equal(got[1], pps) || !bytes.Equal(got[2], idr) {
		t.Errorf("unexpected NAL units: %x", got)
	}
}

func TestParseAnnexB_NoStartCode(t *testing.T) {
	if got := parseAnnexB([]byte{0x65, 0x88}); len(got) != 0 {
		t.Errorf("expected no NAL units, got %d", len(got))
	}
}

func TestAUSplitter_SplitsOnAUD(t *testing.T) {
	aud := nal(0x09, 0xF0)
	stream := annexB(
		aud, nal(0x67, 1), nal(0x68, 2), nal(0x65, 3),
		aud, nal(0x41, 4),
		aud, nal(0x41, 5),
	)

	var aus [][]byte
	s := newAUSplitter(func(au []byte) {
		aus = append(aus, append([]byte(nil), au...))
	})

	// Feed in small chunks so start codes straddle writes.
	for i := 0; i < len(stream); i += 3 {
		end := min(i+3, len(stream))
		if _, err := s.Write(stream[i:end]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if len(aus) != 2 {
		t.Fatalf("expected 2 complete access units before flush, got %d", len(aus))
	}
	s.Flush()
	if len(aus) != 3 {
		t.Fatalf("expected 3 access units after flush, got %d", len(aus))
	}

	first := parseAnnexB(aus[0])
	if len(first) != 4 {
		t.Fatalf("expected 4 NAL units in first AU, got %d", len(first))
	}
	if first[3][0]&0x1F != nalTypeIDR {
		t.Errorf("expected IDR as last NAL of first AU, got type %d", first[3][0]&0x1F)
	}

	last := parseAnnexB(aus[2])
	if len(last) != 2 || !bytes.Equal(last[1], nal(0x41, 5)) {
		t.Errorf("unexpected last AU: %x", last)
	}
}

func TestAUSplitter_FlushEmpty(t *testing.T) {
	called := false
	s := newAUSplitter(func([]byte) { called = true })
	s.Flush()
	if called {
		t.Error("flush of empty splitter should not emit")
	}
}

func TestTrimTrailingZeros(t *testing.T) {
	got := trimTrailingZeros([]byte{0x65, 0x01, 0x00, 0x00})
	if !bytes.Equal(got, []byte{0x65, 0x01}) {
		t.Errorf("got %x", got)
	}
}
