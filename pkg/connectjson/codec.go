// Package connectjson lets connect handlers and clients exchange plain Go
// structs as JSON, for services that are not described by protobuf.
package connectjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Name replaces connect's built-in "json" codec, which only accepts
// proto.Message values.
const Name = "json"

type codec struct{}

func (codec) Name() string { return Name }

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal rejects unknown fields so typos in requests surface as
// invalid_argument instead of being ignored.
func (codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// HandlerOption installs the codec on a handler.
func HandlerOption() connect.HandlerOption {
	return connect.WithCodec(codec{})
}

// ClientOption installs the codec on a client; requests are sent as JSON.
func ClientOption() connect.ClientOption {
	return connect.WithCodec(codec{})
}
