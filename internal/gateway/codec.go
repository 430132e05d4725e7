package gateway

import (
	"bytes"
	"encoding/json"
)

// jsonCodec carries plain Go message structs as Connect's "json" codec.
// Field names follow the protobuf JSON mapping the server speaks.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal treats an empty body as an empty message.
func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
