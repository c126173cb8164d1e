// Package testing provides test utilities for parcel.
package testing

import (
	"bytes"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/zoobzio/parcel"
)

// Shape is a polymorphic fixture interface.
type Shape interface {
	Area() float64
}

// Circle implements Shape.
type Circle struct {
	Radius float64 `parcel:"radius"`
}

// Area implements Shape.
func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Square implements Shape.
type Square struct {
	Side float64 `parcel:"side"`
}

// Area implements Shape.
func (s Square) Area() float64 { return s.Side * s.Side }

// Drawing holds shapes in an interface-typed list, so each element is tagged.
type Drawing struct {
	Title  string            `parcel:"title"`
	Shapes []Shape           `parcel:"shapes"`
	Meta   map[string]any    `parcel:"meta,omitempty"`
	Labels map[string]string `parcel:"labels,omitempty"`
}

// Service has a field filled by the external value resolver.
type Service struct {
	Name string `parcel:"name"`
	X    int    `inject:"x"`
}

// Node can form reference cycles.
type Node struct {
	Name string `parcel:"name"`
	Next *Node  `parcel:"next"`
}

// Fixture identifiers used by Register.
const (
	CircleID  = "circle"
	SquareID  = "square"
	DrawingID = "drawing"
	ServiceID = "service"
	NodeID    = "node"
)

// ResolvedX is the value Resolver binds to the "x" key.
const ResolvedX = 42

// Register records every fixture type on b under its short identifier.
func Register(b *parcel.Builder) *parcel.Builder {
	return b.
		Register(CircleID, Circle{}).
		Register(SquareID, Square{}).
		Register(DrawingID, Drawing{}).
		Register(ServiceID, Service{}).
		Register(NodeID, &Node{})
}

// NewSerializer builds a serializer for codec with the fixtures registered.
// Each option may adjust the builder before Build.
func NewSerializer(tb testing.TB, codec parcel.Codec, opts ...func(*parcel.Builder)) *parcel.Serializer {
	tb.Helper()
	b := Register(parcel.ForFormat(codec))
	for _, opt := range opts {
		opt(b)
	}
	s, err := b.Build()
	if err != nil {
		tb.Fatalf("Build() error: %v", err)
	}
	return s
}

// WithResolver installs Resolver on a builder.
func WithResolver(b *parcel.Builder) {
	b.WithExternalValueResolver(Resolver())
}

// Resolver returns a resolver binding "x" to ResolvedX.
func Resolver() parcel.MapResolver {
	return parcel.MapResolver{"x": ResolvedX}
}

// SampleDrawing returns a drawing with one shape of each kind.
func SampleDrawing() Drawing {
	return Drawing{
		Title:  "sample",
		Shapes: []Shape{Circle{Radius: 1.5}, Square{Side: 2}},
		Meta:   map[string]any{"version": int64(3), "draft": true, "owner": "ops"},
		Labels: map[string]string{"env": "test"},
	}
}

// RecordingSink keeps everything written to it and counts opened streams.
type RecordingSink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	opens  int
	closes int
}

// OpenWriter implements parcel.Sink.
func (s *RecordingSink) OpenWriter() (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return &recordingWriter{sink: s}, nil
}

// Bytes returns the data written so far.
func (s *RecordingSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

// Opens returns the number of streams opened.
func (s *RecordingSink) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Closes returns the number of streams closed.
func (s *RecordingSink) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type recordingWriter struct {
	sink *RecordingSink
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	return w.sink.buf.Write(p)
}

func (w *recordingWriter) Close() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.closes++
	return nil
}

// FailingSink opens streams whose writes fail with err.
// Closed reports whether the last stream was closed.
type FailingSink struct {
	Err    error
	Closed bool
}

// OpenWriter implements parcel.Sink.
func (s *FailingSink) OpenWriter() (io.WriteCloser, error) {
	return &failingWriter{sink: s}, nil
}

type failingWriter struct {
	sink *FailingSink
}

func (w *failingWriter) Write([]byte) (int, error) { return 0, w.sink.Err }

func (w *failingWriter) Close() error {
	w.sink.Closed = true
	return nil
}

// FailingSource opens streams whose reads fail with err.
type FailingSource struct {
	Err    error
	Closed bool
}

// OpenReader implements parcel.Source.
func (s *FailingSource) OpenReader() (io.ReadCloser, error) {
	return &failingReader{src: s}, nil
}

type failingReader struct {
	src *FailingSource
}

func (r *failingReader) Read([]byte) (int, error) { return 0, r.src.Err }

func (r *failingReader) Close() error {
	r.src.Closed = true
	return nil
}
