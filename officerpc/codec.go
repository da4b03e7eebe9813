package officerpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"officesim/shared"
)

// EncodeState converts an office state into its protobuf Struct form
func EncodeState(state shared.OfficeState) (*structpb.Struct, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal office state: %w", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("convert office state: %w", err)
	}
	return st, nil
}

// DecodeState converts a protobuf Struct back into an office state
func DecodeState(st *structpb.Struct) (shared.OfficeState, error) {
	var state shared.OfficeState
	data, err := protojson.Marshal(st)
	if err != nil {
		return state, fmt.Errorf("convert office state: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("unmarshal office state: %w", err)
	}
	return state, nil
}
