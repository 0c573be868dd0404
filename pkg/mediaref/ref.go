package mediaref

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Ref is a read-tolerant media field. It decodes every legacy stored shape
// and always encodes the canonical object (or null).
type Ref struct {
	Asset *MediaAsset
}

// NewRef wraps an asset.
func NewRef(asset *MediaAsset) Ref {
	return Ref{Asset: asset}
}

// IsZero lets omitempty drop empty refs.
func (r Ref) IsZero() bool {
	return r.Asset == nil
}

func (r Ref) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r.Asset == nil {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(*r.Asset)
}

func (r *Ref) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		r.Asset = nil
		return nil
	case bsontype.String:
		s, _ := rv.StringValueOK()
		r.Asset = Normalize(s)
		return nil
	case bsontype.EmbeddedDocument:
		var doc bson.M
		if err := rv.Unmarshal(&doc); err != nil {
			return fmt.Errorf("decode media ref document: %w", err)
		}
		r.Asset = Normalize(doc)
		return nil
	}
	// Unknown shapes decode to an empty ref rather than failing the read.
	r.Asset = nil
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Asset == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*r.Asset)
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode media ref: %w", err)
	}
	r.Asset = Normalize(raw)
	return nil
}
