package device

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoContext is the miniaudio-backed [Context].
type MalgoContext struct {
	ctx *malgo.AllocatedContext

	mu     sync.Mutex
	closed bool
}

var _ Context = (*MalgoContext)(nil)

// NewMalgoContext initialises the miniaudio backend with the platform's
// default configuration.
func NewMalgoContext() (*MalgoContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("device: init audio context: %w", err)
	}
	return &MalgoContext{ctx: ctx}, nil
}

// OpenCapture initialises a capture device delivering FrameSize samples of
// S16 PCM per callback.
func (m *MalgoContext) OpenCapture(cfg CaptureConfig, cb CaptureCallback) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	if cfg.FrameSize > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(cfg.FrameSize)
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			cb(data, frameCount)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("device: init capture: %w", err)
	}
	return &malgoCapture{device: dev}, nil
}

// OpenPlayback initialises a playback device fed from an internal buffer.
// The device callback drains the buffer and pads with silence when it runs
// dry.
func (m *MalgoContext) OpenPlayback(cfg PlaybackConfig) (PlaybackDevice, error) {
	pb := &malgoPlayback{}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			pb.fill(out)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("device: init playback: %w", err)
	}
	pb.device = dev
	return pb, nil
}

// Close releases the miniaudio context. Idempotent.
func (m *MalgoContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.ctx.Uninit(); err != nil {
		m.ctx.Free()
		return fmt.Errorf("device: uninit audio context: %w", err)
	}
	m.ctx.Free()
	return nil
}

type malgoCapture struct {
	device *malgo.Device

	mu     sync.Mutex
	closed bool
}

func (c *malgoCapture) Start() error {
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("device: start capture: %w", err)
	}
	return nil
}

func (c *malgoCapture) Stop() error {
	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("device: stop capture: %w", err)
	}
	return nil
}

func (c *malgoCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.device.Uninit()
	return nil
}

type malgoPlayback struct {
	device *malgo.Device

	mu     sync.Mutex
	buf    []byte
	closed bool
}

// fill copies buffered PCM into the device's output slice, zero-filling the
// remainder. Runs on the audio thread.
func (p *malgoPlayback) fill(out []byte) {
	p.mu.Lock()
	n := copy(out, p.buf)
	p.buf = p.buf[n:]
	p.mu.Unlock()

	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

func (p *malgoPlayback) Start() error {
	if err := p.device.Start(); err != nil {
		return fmt.Errorf("device: start playback: %w", err)
	}
	return nil
}

func (p *malgoPlayback) Write(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("device: write to closed playback device")
	}
	p.buf = append(p.buf, pcm...)
	return nil
}

func (p *malgoPlayback) Reset() {
	p.mu.Lock()
	p.buf = nil
	p.mu.Unlock()
}

func (p *malgoPlayback) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.buf = nil
	p.mu.Unlock()

	p.device.Uninit()
	return nil
}
