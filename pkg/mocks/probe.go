package mocks

import (
	"time"

	"github.com/user/designstage/pkg/ports"
)

// VideoProbe is a mock implementation of ports.VideoProbe.
type VideoProbe struct {
	ProbeFunc func(path string) (ports.VideoInfo, error)

	Info   ports.VideoInfo
	Probed []string
}

func (m *VideoProbe) Probe(path string) (ports.VideoInfo, error) {
	m.Probed = append(m.Probed, path)
	if m.ProbeFunc != nil {
		return m.ProbeFunc(path)
	}
	info := m.Info
	if info.Duration == 0 {
		info.Duration = 2 * time.Second
	}
	return info, nil
}

var _ ports.VideoProbe = (*VideoProbe)(nil)
