// Package proto holds the wire messages and gRPC service descriptors for
// the Raft and 2PC RPC surfaces (spec C4). It stands in for a
// protoc-generated package: the retrieved teacher imports a sibling
// "kvstore/proto" the same way, built from a .proto file via
// protoc-gen-go/protoc-gen-go-grpc. Without a protoc toolchain available
// here, the messages below are plain Go structs carried over gRPC using a
// JSON wire codec instead of the binary protobuf codec — a supported,
// documented grpc-go extension point (encoding.RegisterCodec), not a
// reimplementation of protobuf's reflection machinery.
package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements google.golang.org/grpc/encoding.Codec. grpc-go
// falls back to the codec registered under the name "proto" whenever a
// call doesn't request a different content-subtype, which is what every
// client and server in this module does — so registering under that name
// makes this the effective wire codec for the whole process without
// touching call sites.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "proto"
}
