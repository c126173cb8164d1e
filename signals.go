package parcel

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for serializer events.
var (
	SignalSerializerBuilt     = capitan.NewSignal("parcel.serializer.built", "Serializer configuration finalized")
	SignalSerializeStart      = capitan.NewSignal("parcel.serialize.start", "Envelope serialization beginning")
	SignalSerializeComplete   = capitan.NewSignal("parcel.serialize.complete", "Envelope serialization finished")
	SignalDeserializeStart    = capitan.NewSignal("parcel.deserialize.start", "Envelope deserialization beginning")
	SignalDeserializeComplete = capitan.NewSignal("parcel.deserialize.complete", "Envelope deserialization finished")
	SignalWriteStringComplete = capitan.NewSignal("parcel.write_string.complete", "Direct text encoding finished")
	SignalReadStringComplete  = capitan.NewSignal("parcel.read_string.complete", "Direct text decoding finished")
)

// Keys for typed event data.
var (
	KeyContentType = capitan.NewStringKey("content_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeySize        = capitan.NewIntKey("size")
	KeyTypeCount   = capitan.NewIntKey("type_count")
	KeyMode        = capitan.NewStringKey("mode")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

// emitSerializerBuilt emits an event when Build finalizes a configuration.
func emitSerializerBuilt(ctx context.Context, contentType string, types int, resolver bool) {
	mode := "plain"
	if resolver {
		mode = "resolving"
	}
	capitan.Emit(ctx, SignalSerializerBuilt,
		KeyContentType.Field(contentType),
		KeyMode.Field(mode),
		KeyTypeCount.Field(types),
	)
}

// emitSerializeStart emits an event when envelope serialization begins.
func emitSerializeStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalSerializeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitSerializeComplete emits an event when envelope serialization finishes.
func emitSerializeComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(contentType, typeName, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSerializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSerializeComplete, fields...)
	}
}

// emitDeserializeStart emits an event when envelope deserialization begins.
func emitDeserializeStart(ctx context.Context, contentType string) {
	capitan.Emit(ctx, SignalDeserializeStart,
		KeyContentType.Field(contentType),
	)
}

// emitDeserializeComplete emits an event when envelope deserialization finishes.
func emitDeserializeComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(contentType, typeName, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDeserializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDeserializeComplete, fields...)
	}
}

// emitWriteStringComplete emits an event when direct text encoding finishes.
func emitWriteStringComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(contentType, typeName, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalWriteStringComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalWriteStringComplete, fields...)
	}
}

// emitReadStringComplete emits an event when direct text decoding finishes.
func emitReadStringComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(contentType, typeName, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalReadStringComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalReadStringComplete, fields...)
	}
}

func completeFields(contentType, typeName string, size int, duration time.Duration) []capitan.Field {
	return []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
}
