package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName overrides grpc-go's default "proto" codec. Every message this
// package sends/receives is one of the plain structs in messages.go, not a
// generated proto.Message, so the default codec (which requires
// proto.Message) cannot serve them; jsonCodec below stands in for it,
// registered under the same name grpc-go picks by default when no
// content-subtype is negotiated.
const codecName = "proto"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals RPC messages as JSON rather than wire-format
// protobuf. google.golang.org/grpc only requires Marshal/Unmarshal/Name;
// it never inspects the bytes itself, so any message shape can ride over
// it as long as client and server agree on one codec — which they do
// here, both linking this package.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpc: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return codecName }
