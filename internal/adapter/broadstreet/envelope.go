package broadstreet

import (
	"github.com/goccy/go-json"
)

// shape tags the recognized envelope forms of an upstream list response.
// The upstream API is inconsistent across endpoints: some return a bare
// array, some wrap the list in an object keyed by the plural entity name
// (or "data"), and some return a single object. Anything else is
// malformed and yields zero records rather than an error.
type shape int

const (
	shapeList shape = iota
	shapeEnvelope
	shapeObject
	shapeMalformed
)

func (s shape) String() string {
	switch s {
	case shapeList:
		return "list"
	case shapeEnvelope:
		return "envelope"
	case shapeObject:
		return "object"
	default:
		return "malformed"
	}
}

// decodeList normalizes an upstream payload into a flat list of raw
// records, reporting which envelope shape it recognized. The decision of
// what shape arrived is made here, once; callers only deal with records.
func decodeList(payload []byte, plural string) ([]json.RawMessage, shape) {
	var list []json.RawMessage
	if err := json.Unmarshal(payload, &list); err == nil {
		return list, shapeList
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, shapeMalformed
	}
	for _, key := range []string{plural, "data"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, shapeEnvelope
		}
	}

	// A plain object with neither list key is taken as a single record.
	return []json.RawMessage{json.RawMessage(payload)}, shapeObject
}
