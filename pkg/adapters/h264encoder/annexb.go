package h264encoder

// NAL unit types used when splitting and muxing.
const (
	nalTypeIDR = 5
	nalTypeSPS = 7
	nalTypePPS = 8
	nalTypeAUD = 9
)

// auSplitter reassembles an Annex B byte stream into access units.
// The encoder is configured to emit an AUD before every access unit,
// so each AUD closes the unit collected so far.
type auSplitter struct {
	buf  []byte
	cur  []byte
	emit func(au []byte)
}

func newAUSplitter(emit func(au []byte)) *auSplitter {
	return &auSplitter{emit: emit}
}

// Write consumes a chunk of the byte stream. NAL units are only processed
// once the following start code has been seen.
func (s *auSplitter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)

	pos, n := nextStartCode(s.buf, 0)
	if pos < 0 {
		return len(p), nil
	}
	for {
		next, nextLen := nextStartCode(s.buf, pos+n)
		if next < 0 {
			break
		}
		s.addNAL(s.buf[pos+n : next])
		pos, n = next, nextLen
	}

	// Keep the incomplete tail, starting at its start code.
	rest := copy(s.buf, s.buf[pos:])
	s.buf = s.buf[:rest]
	return len(p), nil
}

// Flush emits the remaining NAL unit and access unit at end of stream.
func (s *auSplitter) Flush() {
	if pos, n := nextStartCode(s.buf, 0); pos >= 0 {
		s.addNAL(s.buf[pos+n:])
	}
	s.buf = s.buf[:0]
	if len(s.cur) > 0 {
		s.emit(s.cur)
		s.cur = nil
	}
}

func (s *auSplitter) addNAL(nal []byte) {
	nal = trimTrailingZeros(nal)
	if len(nal) == 0 {
		return
	}
	if nal[0]&0x1F == nalTypeAUD && len(s.cur) > 0 {
		s.emit(s.cur)
		s.cur = nil
	}
	s.cur = append(s.cur, 0, 0, 0, 1)
	s.cur = append(s.cur, nal...)
}

// nextStartCode finds the first start code at or after from and returns its
// offset and length (3 or 4), or -1 when none is present.
func nextStartCode(b []byte, from int) (int, int) {
	for i := from; i+2 < len(b); i++ {
		if b[i] != 0 || b[i+1] != 0 || b[i+2] != 1 {
			continue
		}
		if i > from && b[i-1] == 0 {
			return i - 1, 4
		}
		return i, 3
	}
	return -1, 0
}

func trimTrailingZeros(nal []byte) []byte {
	for len(nal) > 0 && nal[len(nal)-1] == 0 {
		nal = nal[:len(nal)-1]
	}
	return nal
}

// parseAnnexB splits an Annex B buffer into its NAL unit payloads.
func parseAnnexB(data []byte) [][]byte {
	var nalus [][]byte

	pos, n := nextStartCode(data, 0)
	for pos >= 0 {
		next, nextLen := nextStartCode(data, pos+n)
		end := next
		if next < 0 {
			end = len(data)
		}
		if nal := trimTrailingZeros(data[pos+n : end]); len(nal) > 0 {
			nalus = append(nalus, nal)
		}
		pos, n = next, nextLen
	}

	return nalus
}
