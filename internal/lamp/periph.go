package lamp

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// pixelWriter is the part of nrzled.Dev and screen1d.Dev we use.
type pixelWriter interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// strip adapts a periph pixel device to Driver.
type strip struct {
	mu     sync.Mutex
	dev    pixelWriter
	port   spi.PortCloser
	pixels int
}

func (s *strip) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("strip closed")
	}
	if len(rgb) != s.pixels*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.pixels)
	}
	if _, err := s.dev.Write(rgb); err != nil {
		return fmt.Errorf("strip write: %w", err)
	}
	return nil
}

func (s *strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
		s.port = nil
	}
	return err
}

// NewConsole prints the strip at the terminal.
func NewConsole(pixels int) Driver {
	return &strip{dev: screen1d.New(&screen1d.Opts{X: pixels}), pixels: pixels}
}

// NewSPI drives a WS2812-style strip through periph's nrzled encoder. An empty
// dev opens the first SPI port found.
func NewSPI(dev string, pixels int, freqKHz int) (Driver, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", pixels)
	}
	if freqKHz <= 0 {
		freqKHz = 800
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	d, err := newNRZ(port, pixels, freqKHz)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	d.port = port
	return d, nil
}

// newNRZ binds the encoder to an already opened port.
func newNRZ(port spi.Port, pixels int, freqKHz int) (*strip, error) {
	opts := nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      physic.Frequency(freqKHz*3+100) * physic.KiloHertz,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &strip{dev: d, pixels: pixels}, nil
}
