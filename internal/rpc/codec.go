// Package rpc carries the wire layer for Laqista's two service
// contracts (laqista.Scheduler, laqista.ServerDaemon). Rather than
// generate stubs with protoc, this package hand-authors the same shape
// protoc-gen-go-grpc produces (grpc.ServiceDesc plus typed client/server
// interfaces) and marshals messages as plain Go structs through a small
// JSON codec. This keeps every behavior real grpc.Server/ClientConn
// traffic needs — deadlines, interceptors, FullMethod-based path
// parsing — intact without a protobuf toolchain.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered in place of grpc-go's built-in protobuf
// codec. grpc's own "proto" codec is registered by an init() in
// google.golang.org/grpc/encoding/proto, a package this one transitively
// imports via "google.golang.org/grpc"; Go runs that init before this
// package's, so registering under the same name here intentionally
// overrides it for every ClientConn/Server in this process.
const CodecName = "proto"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements encoding.Codec by marshaling request/reply
// structs as JSON. It requires pointer-to-struct messages, the same
// shape protoc-generated messages have.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpc: unmarshal into %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return CodecName
}
