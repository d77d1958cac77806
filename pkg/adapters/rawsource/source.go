// Package rawsource replays recorded depth frames from a binary stream.
//
// A stream is a sequence of records, each a 16-byte little-endian header
// followed by width*height little-endian uint16 samples:
//
//	magic   [4]byte "DPTH"
//	width   uint32
//	height  uint32
//	min     uint16  minimum reliable distance (mm)
//	max     uint16  maximum reliable distance (mm)
package rawsource

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/user/depthshow/pkg/adapters/pacer"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// Magic starts every frame record.
const Magic = "DPTH"

// HeaderSize is the encoded size of a record header.
const HeaderSize = 16

// MaxPixels bounds the frame size accepted from a stream.
const MaxPixels = 4096 * 4096

var (
	// ErrBadMagic is returned when a record does not start with Magic.
	ErrBadMagic = errors.New("bad frame magic")
	// ErrTruncatedFrame is returned when the stream ends inside a record.
	ErrTruncatedFrame = errors.New("truncated frame")
	// ErrFrameTooLarge is returned for headers exceeding MaxPixels.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrEmptyStream is returned when a looping stream contains no frames.
	ErrEmptyStream = errors.New("stream contains no frames")
	// ErrSampleCount is returned by WriteFrame for inconsistent frames.
	ErrSampleCount = errors.New("sample count does not match frame size")
)

// Header is the fixed part of a frame record.
type Header struct {
	Magic       [4]byte
	Width       uint32
	Height      uint32
	MinReliable uint16
	MaxReliable uint16
}

// Options configures replay.
type Options struct {
	// Loop reopens the file at the end of the stream.
	Loop bool
	// FPS paces replay. Zero replays as fast as frames are requested.
	FPS float64
}

// Source is a ports.FrameSource reading frame records.
type Source struct {
	fs     ports.FileSystem
	path   string
	opts   Options
	logger ports.Logger
	pacer  *pacer.Pacer

	file   io.ReadCloser
	reader *bufio.Reader

	frame   depth.Frame
	samples []uint16
	raw     []byte

	frames      int
	framesInRun int
	loops       int
}

// Open opens path on fs for replay.
func Open(fs ports.FileSystem, path string, opts Options, logger ports.Logger) (*Source, error) {
	s := &Source{
		fs:     fs,
		path:   path,
		opts:   opts,
		logger: logger.WithComponent("replay"),
		pacer:  pacer.New(opts.FPS),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewReader replays frames from r without looping. r is closed by Close when
// it implements io.Closer.
func NewReader(r io.Reader, logger ports.Logger) *Source {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return &Source{
		logger: logger.WithComponent("replay"),
		pacer:  pacer.New(0),
		file:   rc,
		reader: bufio.NewReader(rc),
	}
}

func (s *Source) open() error {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	s.file = f
	s.reader = bufio.NewReader(f)
	s.framesInRun = 0
	return nil
}

// Next reads the next frame. The returned frame and its samples are reused by
// the following call. io.EOF marks the end of a non-looping stream.
func (s *Source) Next(ctx context.Context) (*depth.Frame, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	err := s.readFrame()
	if errors.Is(err, io.EOF) && s.opts.Loop && s.fs != nil {
		if s.framesInRun == 0 {
			return nil, fmt.Errorf("%s: %w", s.path, ErrEmptyStream)
		}
		s.file.Close()
		if err := s.open(); err != nil {
			return nil, err
		}
		s.loops++
		s.logger.Debug("Replay restarted from the beginning (loop %d)", s.loops)
		err = s.readFrame()
	}
	if err != nil {
		return nil, err
	}

	s.frames++
	s.framesInRun++
	return &s.frame, nil
}

// readFrame decodes one record into s.frame. A clean end of stream before a
// header returns io.EOF.
func (s *Source) readFrame() error {
	var hdr Header
	if err := binary.Read(s.reader, binary.LittleEndian, &hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("frame %d header: %w", s.frames, ErrTruncatedFrame)
		}
		return fmt.Errorf("frame %d header: %w", s.frames, err)
	}
	if string(hdr.Magic[:]) != Magic {
		return fmt.Errorf("frame %d: %w: %q", s.frames, ErrBadMagic, hdr.Magic[:])
	}

	pixels := uint64(hdr.Width) * uint64(hdr.Height)
	if pixels > MaxPixels {
		return fmt.Errorf("frame %d: %dx%d: %w", s.frames, hdr.Width, hdr.Height, ErrFrameTooLarge)
	}
	n := int(pixels)

	if cap(s.raw) < n*2 {
		s.raw = make([]byte, n*2)
		s.samples = make([]uint16, n)
	}
	s.raw = s.raw[:n*2]
	s.samples = s.samples[:n]

	if _, err := io.ReadFull(s.reader, s.raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("frame %d samples: %w", s.frames, ErrTruncatedFrame)
		}
		return fmt.Errorf("frame %d samples: %w", s.frames, err)
	}
	for i := range s.samples {
		s.samples[i] = binary.LittleEndian.Uint16(s.raw[i*2:])
	}

	s.frame = depth.Frame{
		Width:               hdr.Width,
		Height:              hdr.Height,
		Samples:             s.samples,
		MinReliableDistance: hdr.MinReliable,
		MaxReliableDistance: hdr.MaxReliable,
	}
	return nil
}

// Frames returns the number of frames read.
func (s *Source) Frames() int {
	return s.frames
}

// Loops returns how many times the stream was restarted.
func (s *Source) Loops() int {
	return s.loops
}

// Close closes the underlying stream.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// WriteFrame encodes frame as one record on w.
func WriteFrame(w io.Writer, frame *depth.Frame) error {
	if frame.PixelCount() != len(frame.Samples) {
		return fmt.Errorf("write frame %dx%d with %d samples: %w",
			frame.Width, frame.Height, len(frame.Samples), ErrSampleCount)
	}
	hdr := Header{
		Width:       frame.Width,
		Height:      frame.Height,
		MinReliable: frame.MinReliableDistance,
		MaxReliable: frame.MaxReliableDistance,
	}
	copy(hdr.Magic[:], Magic)

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, frame.Samples)
}

var _ ports.FrameSource = (*Source)(nil)
