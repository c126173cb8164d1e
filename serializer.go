package parcel

import (
	"bufio"
	"context"
	"io"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zoobzio/sentinel"
)

var errTextRequired = errors.New("operation requires a text codec")

// Serializer encodes and decodes values with one immutable configuration.
// Serializers are safe for concurrent use.
type Serializer struct {
	cfg *config
}

// ContentType returns the MIME type of the configured codec.
func (s *Serializer) ContentType() string {
	return s.cfg.codec.ContentType()
}

// Format reports whether the configured codec is text or binary.
func (s *Serializer) Format() Format {
	return s.cfg.codec.Format()
}

// SerializeTo wraps v in an Envelope, encodes it and writes the result to
// sink through a buffered stream. The document is fully encoded before the
// sink is opened, so encoding failures never touch the sink. The stream is
// closed on every path.
func (s *Serializer) SerializeTo(ctx context.Context, v any, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	typeName := typeNameOf(v)
	emitSerializeStart(ctx, s.ContentType(), typeName)

	var retErr error
	var size int
	defer func() {
		emitSerializeComplete(ctx, s.ContentType(), typeName, size, time.Since(start), retErr)
	}()

	data, err := s.marshal(v)
	if err != nil {
		retErr = err
		return retErr
	}
	size = len(data)

	retErr = writeAll(sink, data)
	return retErr
}

// DeserializeFrom reads an Envelope from src and returns the value it holds,
// with the dynamic type recorded in its type tag.
func (s *Serializer) DeserializeFrom(ctx context.Context, src Source) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	emitDeserializeStart(ctx, s.ContentType())

	var retErr error
	var retVal any
	var size int
	defer func() {
		emitDeserializeComplete(ctx, s.ContentType(), typeNameOf(retVal), size, time.Since(start), retErr)
	}()

	data, err := readAll(src)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	size = len(data)

	retVal, retErr = s.unmarshal(data)
	if retErr != nil {
		retVal = nil
		return nil, retErr
	}
	return retVal, nil
}

// Marshal is SerializeTo over a byte slice.
func (s *Serializer) Marshal(ctx context.Context, v any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.marshal(v)
}

// Unmarshal is DeserializeFrom over a byte slice.
func (s *Serializer) Unmarshal(ctx context.Context, data []byte) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.unmarshal(data)
}

// WriteValueAsString encodes v without an Envelope. The root value is not
// tagged, so the reader must know its type. Requires a text codec.
func (s *Serializer) WriteValueAsString(ctx context.Context, v any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	var retErr error
	var text string
	defer func() {
		emitWriteStringComplete(ctx, s.ContentType(), typeNameOf(v), len(text), time.Since(start), retErr)
	}()

	if s.Format() != FormatText {
		retErr = newCodecError(ErrEncoding, errTextRequired)
		return "", retErr
	}

	var node any
	if v != nil {
		rv := reflect.ValueOf(v)
		node, retErr = newEncodeState(s.cfg).encode(rv, rv.Type(), "")
		if retErr != nil {
			return "", retErr
		}
	}

	data, err := s.cfg.codec.Marshal(node)
	if err != nil {
		retErr = newCodecError(ErrEncoding, err)
		return "", retErr
	}
	text = string(data)
	return text, nil
}

// DeserializeFromString decodes text into the value target points to.
// target must be a non-nil pointer. Decoding is all-or-nothing: on failure
// the pointed-to value is left untouched. Requires a text codec.
func (s *Serializer) DeserializeFromString(ctx context.Context, text string, target any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Wrapf(ErrInvariant, "target must be a non-nil pointer, got %T", target)
	}
	return s.deserializeString(ctx, text, rv.Elem(), TypeID(rv.Type().Elem()))
}

// DeserializeAs decodes text into a new value of type T.
func DeserializeAs[T any](ctx context.Context, s *Serializer, text string) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}

	typeName := TypeID(reflect.TypeFor[T]())
	if reflect.TypeFor[T]().Kind() == reflect.Struct {
		typeName = sentinel.Scan[T]().TypeName
	}

	err := s.deserializeString(ctx, text, reflect.ValueOf(&out).Elem(), typeName)
	return out, err
}

func (s *Serializer) deserializeString(ctx context.Context, text string, dst reflect.Value, typeName string) error {
	start := time.Now()
	var retErr error
	defer func() {
		emitReadStringComplete(ctx, s.ContentType(), typeName, len(text), time.Since(start), retErr)
	}()

	if s.Format() != FormatText {
		retErr = newCodecError(ErrDecoding, errTextRequired)
		return retErr
	}

	var node any
	if err := s.cfg.codec.Unmarshal([]byte(text), &node); err != nil {
		retErr = newCodecError(ErrDecoding, err)
		return retErr
	}

	tmp := reflect.New(dst.Type()).Elem()
	d := &decodeState{cfg: s.cfg}
	if retErr = d.decode(node, tmp, ""); retErr != nil {
		return retErr
	}
	dst.Set(tmp)
	return nil
}

func (s *Serializer) marshal(v any) ([]byte, error) {
	env, err := Wrap(v)
	if err != nil {
		return nil, err
	}
	tree, err := encodeEnvelope(s.cfg, env)
	if err != nil {
		return nil, err
	}
	data, err := s.cfg.codec.Marshal(tree)
	if err != nil {
		return nil, newCodecError(ErrEncoding, err)
	}
	return data, nil
}

func (s *Serializer) unmarshal(data []byte) (any, error) {
	var node any
	if err := s.cfg.codec.Unmarshal(data, &node); err != nil {
		return nil, newCodecError(ErrDecoding, err)
	}
	env, err := decodeEnvelope(s.cfg, node)
	if err != nil {
		return nil, err
	}
	return env.Unwrap(), nil
}

// writeAll writes data to a fresh stream from sink, flushing and closing it.
func writeAll(sink Sink, data []byte) (err error) {
	w, err := sink.OpenWriter()
	if err != nil {
		return newStreamError("open", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = newStreamError("close", cerr)
		}
	}()

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(data); err != nil {
		return newStreamError("write", err)
	}
	if err := bw.Flush(); err != nil {
		return newStreamError("flush", err)
	}
	return nil
}

// readAll drains a fresh stream from src and closes it.
func readAll(src Source) (data []byte, err error) {
	r, err := src.OpenReader()
	if err != nil {
		return nil, newStreamError("open", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			data, err = nil, newStreamError("close", cerr)
		}
	}()

	data, err = io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, newStreamError("read", err)
	}
	return data, nil
}

func typeNameOf(v any) string {
	if v == nil {
		return ""
	}
	return TypeID(reflect.TypeOf(v))
}
