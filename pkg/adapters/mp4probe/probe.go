// Package mp4probe reads recording metadata back from MP4 files.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/designstage/pkg/ports"
)

// ErrNoVideoTrack is returned when a file has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Probe implements ports.VideoProbe using mp4ff.
type Probe struct{}

// New creates a Probe.
func New() *Probe {
	return &Probe{}
}

// Probe reads the dimensions, duration and sample count of path.
func (p *Probe) Probe(path string) (ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return p.ProbeReader(f)
}

// ProbeReader is Probe for an already open file.
func (p *Probe) ProbeReader(r io.ReadSeeker) (ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeFragmented(mp4File *mp4.File) (ports.VideoInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	trak := videoTrak(mp4File.Init.Moov)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}

	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trak.Tkhd.TrackID {
				trex = t
				break
			}
		}
	}

	info := trackInfo(trak)
	var ticks uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return ports.VideoInfo{}, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				ticks += uint64(s.Dur)
			}
			info.Frames += len(samples)
		}
	}
	info.Duration = toDuration(ticks, timescale(trak))
	return info, nil
}

func probeProgressive(mp4File *mp4.File) (ports.VideoInfo, error) {
	if mp4File.Moov == nil {
		return ports.VideoInfo{}, fmt.Errorf("no moov box found")
	}
	trak := videoTrak(mp4File.Moov)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}

	info := trackInfo(trak)
	stbl := trak.Mdia.Minf.Stbl
	if stbl == nil {
		return info, nil
	}

	if stbl.Stsz != nil {
		info.Frames = int(stbl.Stsz.SampleNumber)
	}
	if stbl.Stts != nil {
		var ticks uint64
		for i, count := range stbl.Stts.SampleCount {
			ticks += uint64(count) * uint64(stbl.Stts.SampleTimeDelta[i])
		}
		info.Duration = toDuration(ticks, timescale(trak))
	}
	return info, nil
}

func videoTrak(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// trackInfo takes the coded size from the sample entry, falling back to
// the track header.
func trackInfo(trak *mp4.TrakBox) ports.VideoInfo {
	var info ports.VideoInfo
	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if entry, ok := child.(*mp4.VisualSampleEntryBox); ok {
				info.Width = int(entry.Width)
				info.Height = int(entry.Height)
				info.Codec = entry.Type()
			}
		}
	}
	if (info.Width == 0 || info.Height == 0) && trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}
	return info
}

func timescale(trak *mp4.TrakBox) uint32 {
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		return trak.Mdia.Mdhd.Timescale
	}
	return 1000
}

func toDuration(ticks uint64, timescale uint32) time.Duration {
	return time.Duration(ticks * uint64(time.Second) / uint64(timescale))
}

var _ ports.VideoProbe = (*Probe)(nil)
