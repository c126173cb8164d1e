package parcel

import (
	"bytes"
	"io"
	"os"
)

// Sink opens a writable byte stream. Each call must return an independent
// stream; the Serializer closes it.
type Sink interface {
	OpenWriter() (io.WriteCloser, error)
}

// Source opens a readable byte stream. Each call must return an independent
// stream; the Serializer closes it.
type Source interface {
	OpenReader() (io.ReadCloser, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func() (io.WriteCloser, error)

// OpenWriter calls f.
func (f SinkFunc) OpenWriter() (io.WriteCloser, error) { return f() }

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (io.ReadCloser, error)

// OpenReader calls f.
func (f SourceFunc) OpenReader() (io.ReadCloser, error) { return f() }

// FileSink writes to path, creating or truncating it.
func FileSink(path string) Sink {
	return SinkFunc(func() (io.WriteCloser, error) {
		return os.Create(path)
	})
}

// FileSource reads from path.
func FileSource(path string) Source {
	return SourceFunc(func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// WriterSink writes to w. Closing the stream does not close w.
func WriterSink(w io.Writer) Sink {
	return SinkFunc(func() (io.WriteCloser, error) {
		return nopWriteCloser{w}, nil
	})
}

// ReaderSource reads from r. Closing the stream does not close r.
func ReaderSource(r io.Reader) Source {
	return SourceFunc(func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	})
}

// BytesSource reads from a copy-free view of b.
func BytesSource(b []byte) Source {
	return SourceFunc(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	})
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
