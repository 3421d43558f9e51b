package h264encoder

import (
	"fmt"
	"io"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

const (
	// videoTimescale is the conventional 90 kHz media clock.
	videoTimescale = 90000
	trackID        = 1
)

// muxSample is an access unit waiting for its duration to be known.
type muxSample struct {
	data       []byte // AVCC, length-prefixed
	pts        time.Duration
	isKeyframe bool
}

// fragmentMuxer writes a fragmented MP4 progressively: ftyp+moov once the
// first access unit provides SPS/PPS, then one moof+mdat per fragment.
// Each sample's duration is the gap to the next presentation timestamp,
// so capture timing survives into the container.
type fragmentMuxer struct {
	w      io.Writer
	width  int
	height int
	fps    float64

	samplesPerFragment int

	initWritten bool
	seqNr       uint32
	frag        *mp4.Fragment
	fragSamples int
	pending     *muxSample
	count       int
}

func newFragmentMuxer(w io.Writer, width, height int, fps float64) *fragmentMuxer {
	perFragment := int(fps)
	if perFragment < 1 {
		perFragment = 1
	}
	return &fragmentMuxer{
		w:                  w,
		width:              width,
		height:             height,
		fps:                fps,
		samplesPerFragment: perFragment,
	}
}

// AddAccessUnit queues an Annex B access unit presented at pts.
func (m *fragmentMuxer) AddAccessUnit(au []byte, pts time.Duration) error {
	nalus := parseAnnexB(au)

	if !m.initWritten {
		sps, pps := parameterSets(nalus)
		if sps == nil || pps == nil {
			return ErrMissingParameterSets
		}
		if err := m.writeInit(sps, pps); err != nil {
			return err
		}
	}

	next := &muxSample{
		data:       toAVCC(nalus),
		pts:        pts,
		isKeyframe: containsNALType(nalus, nalTypeIDR),
	}
	if len(next.data) == 0 {
		return nil
	}

	if m.pending != nil {
		dur := sampleDuration(m.pending.pts, next.pts)
		if err := m.addSample(m.pending, dur); err != nil {
			return err
		}
	}
	m.pending = next
	return nil
}

// Close writes the held-back sample and the last fragment.
func (m *fragmentMuxer) Close() error {
	if m.pending != nil {
		if err := m.addSample(m.pending, frameTicks(m.fps)); err != nil {
			return err
		}
		m.pending = nil
	}
	if err := m.flushFragment(); err != nil {
		return err
	}
	if m.count == 0 {
		return ErrNoFrames
	}
	return nil
}

func (m *fragmentMuxer) writeInit(sps, pps []byte) error {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(videoTimescale, "video", "und")
	trak := init.Moov.Trak

	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return fmt.Errorf("create avcC: %w", err)
	}

	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(m.width), uint16(m.height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(m.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(m.height << 16)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(m.w); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(m.w); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}

	m.initWritten = true
	return nil
}

func (m *fragmentMuxer) addSample(s *muxSample, dur uint32) error {
	if m.frag == nil {
		m.seqNr++
		frag, err := mp4.CreateFragment(m.seqNr, trackID)
		if err != nil {
			return fmt.Errorf("create fragment: %w", err)
		}
		m.frag = frag
	}

	flags := mp4.NonSyncSampleFlags
	if s.isKeyframe {
		flags = mp4.SyncSampleFlags
	}

	m.frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: flags,
			Size:  uint32(len(s.data)),
			Dur:   dur,
		},
		DecodeTime: toTicks(s.pts),
		Data:       s.data,
	})
	m.fragSamples++
	m.count++

	if m.fragSamples >= m.samplesPerFragment {
		return m.flushFragment()
	}
	return nil
}

func (m *fragmentMuxer) flushFragment() error {
	if m.frag == nil {
		return nil
	}
	if err := m.frag.Encode(m.w); err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	m.frag = nil
	m.fragSamples = 0
	return nil
}

// toTicks converts a presentation time to the 90 kHz timescale.
func toTicks(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d) * videoTimescale / uint64(time.Second)
}

// frameTicks is the nominal duration of one frame.
func frameTicks(fps float64) uint32 {
	if fps <= 0 {
		return videoTimescale / 30
	}
	return uint32(float64(videoTimescale) / fps)
}

// sampleDuration derives a sample's duration from its successor. Computing
// both ends in ticks keeps decode times contiguous without drift.
func sampleDuration(cur, next time.Duration) uint32 {
	a, b := toTicks(cur), toTicks(next)
	if b <= a {
		return 1
	}
	return uint32(b - a)
}

// parameterSets returns the first SPS and PPS in nalus.
func parameterSets(nalus [][]byte) (sps, pps []byte) {
	for _, nalu := range nalus {
		switch nalu[0] & 0x1F {
		case nalTypeSPS:
			if sps == nil {
				sps = append([]byte(nil), nalu...)
			}
		case nalTypePPS:
			if pps == nil {
				pps = append([]byte(nil), nalu...)
			}
		}
	}
	return sps, pps
}

func containsNALType(nalus [][]byte, typ byte) bool {
	for _, nalu := range nalus {
		if nalu[0]&0x1F == typ {
			return true
		}
	}
	return false
}

// toAVCC converts NAL units to length-prefixed form, leaving out the
// parameter sets (carried in avcC) and access unit delimiters.
func toAVCC(nalus [][]byte) []byte {
	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}

	result := make([]byte, 0, size)
	for _, nalu := range nalus {
		switch nalu[0] & 0x1F {
		case nalTypeSPS, nalTypePPS, nalTypeAUD:
			continue
		}
		n := len(nalu)
		result = append(result, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		result = append(result, nalu...)
	}
	return result
}
