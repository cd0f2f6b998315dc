package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/unbase/unbase/wire"
)

func TestJSONCodecRoundTripsEditBody(t *testing.T) {
	codec := wire.JSONCodec{}

	body := wire.EditBodyDTO{Values: map[string]string{"name": "alice"}}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	dto := wire.MemoDTO{
		ID:    42,
		Owner: 1,
		SubjectID: &wire.SubjectIDDTO{
			Stype: 1,
			ID:    7,
		},
		Kind: wire.KindEdit,
		Body: raw,
	}

	encoded, err := codec.Encode(dto)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.ID != dto.ID || decoded.Owner != dto.Owner || decoded.Kind != dto.Kind {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if decoded.SubjectID == nil || *decoded.SubjectID != *dto.SubjectID {
		t.Fatalf("subject id did not round trip: %+v", decoded.SubjectID)
	}

	var gotBody wire.EditBodyDTO
	if err := json.Unmarshal(decoded.Body, &gotBody); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if gotBody.Values["name"] != "alice" {
		t.Fatalf("expected body values to round trip, got %#v", gotBody.Values)
	}
}

func TestJSONCodecRoundTripsRelationBodyWithEdgesAndRelations(t *testing.T) {
	codec := wire.JSONCodec{}

	body := wire.RelationBodyDTO{
		Relations: map[uint8]wire.RelationTargetDTO{
			3: {SubjectID: wire.SubjectIDDTO{Stype: 2, ID: 9}},
		},
		Edges: map[uint8]wire.RelationTargetDTO{
			5: {SubjectID: wire.SubjectIDDTO{Stype: 3, ID: 11}},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	dto := wire.MemoDTO{ID: 1, Owner: 1, Kind: wire.KindRelation, Body: raw}
	encoded, err := codec.Encode(dto)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var gotBody wire.RelationBodyDTO
	if err := json.Unmarshal(decoded.Body, &gotBody); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if gotBody.Relations[3].SubjectID.ID != 9 {
		t.Fatalf("expected relation slot 3 to round trip, got %#v", gotBody.Relations)
	}
	if gotBody.Edges[5].SubjectID.ID != 11 {
		t.Fatalf("expected edge slot 5 to round trip, got %#v", gotBody.Edges)
	}
}

func TestJSONCodecRoundTripsNilSubjectID(t *testing.T) {
	codec := wire.JSONCodec{}
	dto := wire.MemoDTO{ID: 1, Owner: 1, Kind: wire.KindPresence, Body: json.RawMessage("{}")}

	encoded, err := codec.Encode(dto)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(encoded) == "" {
		t.Fatalf("expected non-empty encoding")
	}

	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SubjectID != nil {
		t.Fatalf("expected nil subject id to round trip as nil, got %+v", decoded.SubjectID)
	}
}

func TestJSONCodecDecodeRejectsMalformedPayload(t *testing.T) {
	codec := wire.JSONCodec{}
	if _, err := codec.Decode([]byte("not json")); err == nil {
		t.Fatalf("expected decode of malformed payload to fail")
	}
}
