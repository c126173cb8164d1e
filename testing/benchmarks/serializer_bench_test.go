package benchmarks

import (
	"context"
	"testing"

	"github.com/zoobzio/parcel"
	"github.com/zoobzio/parcel/cbor"
	"github.com/zoobzio/parcel/json"
	"github.com/zoobzio/parcel/msgpack"
	parceltest "github.com/zoobzio/parcel/testing"
	"github.com/zoobzio/parcel/yaml"
)

func benchmarkMarshal(b *testing.B, codec parcel.Codec) {
	s := parceltest.NewSerializer(b, codec)
	drawing := parceltest.SampleDrawing()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Marshal(context.Background(), drawing)
	}
}

func benchmarkUnmarshal(b *testing.B, codec parcel.Codec) {
	s := parceltest.NewSerializer(b, codec)
	data, err := s.Marshal(context.Background(), parceltest.SampleDrawing())
	if err != nil {
		b.Fatalf("Marshal() error: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Unmarshal(context.Background(), data)
	}
}

func BenchmarkSerializer_Marshal_JSON(b *testing.B)    { benchmarkMarshal(b, json.New()) }
func BenchmarkSerializer_Marshal_YAML(b *testing.B)    { benchmarkMarshal(b, yaml.New()) }
func BenchmarkSerializer_Marshal_MsgPack(b *testing.B) { benchmarkMarshal(b, msgpack.New()) }
func BenchmarkSerializer_Marshal_CBOR(b *testing.B)    { benchmarkMarshal(b, cbor.New()) }

func BenchmarkSerializer_Unmarshal_JSON(b *testing.B)    { benchmarkUnmarshal(b, json.New()) }
func BenchmarkSerializer_Unmarshal_YAML(b *testing.B)    { benchmarkUnmarshal(b, yaml.New()) }
func BenchmarkSerializer_Unmarshal_MsgPack(b *testing.B) { benchmarkUnmarshal(b, msgpack.New()) }
func BenchmarkSerializer_Unmarshal_CBOR(b *testing.B)    { benchmarkUnmarshal(b, cbor.New()) }

func BenchmarkSerializer_WriteValueAsString(b *testing.B) {
	s := parceltest.NewSerializer(b, json.New())
	drawing := parceltest.SampleDrawing()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.WriteValueAsString(context.Background(), drawing)
	}
}

func BenchmarkSerializer_Resolver(b *testing.B) {
	s := parceltest.NewSerializer(b, json.New(), parceltest.WithResolver)
	data, err := s.Marshal(context.Background(), parceltest.Service{Name: "svc"})
	if err != nil {
		b.Fatalf("Marshal() error: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Unmarshal(context.Background(), data)
	}
}

func BenchmarkSerializer_Parallel(b *testing.B) {
	s := parceltest.NewSerializer(b, json.New())
	drawing := parceltest.SampleDrawing()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = s.Marshal(context.Background(), drawing)
		}
	})
}
