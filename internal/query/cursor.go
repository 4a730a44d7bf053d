package query

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/workway/workway/internal/model"
)

// ErrBadMarker marks a page marker the client sent that cannot be decoded.
// Handlers map it to a 400, never a 500.
var ErrBadMarker = errors.New("malformed page marker")

// pageMarker is the wire form of a sort position. Clients treat the encoded
// string as opaque.
type pageMarker struct {
	UpdatedAt int64  `json:"updatedAt"` // unix milliseconds
	JobID     string `json:"job_id"`
}

// EncodeMarker encodes a sort position into an opaque page marker.
func EncodeMarker(pos model.Position) string {
	b, _ := json.Marshal(pageMarker{
		UpdatedAt: pos.UpdatedAt.UnixMilli(),
		JobID:     pos.JobID,
	})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeMarker decodes an opaque page marker back into a sort position.
func DecodeMarker(marker string) (model.Position, error) {
	raw, err := base64.RawURLEncoding.DecodeString(marker)
	if err != nil {
		return model.Position{}, fmt.Errorf("%w: %v", ErrBadMarker, err)
	}
	var m pageMarker
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.Position{}, fmt.Errorf("%w: %v", ErrBadMarker, err)
	}
	if m.JobID == "" {
		return model.Position{}, fmt.Errorf("%w: missing job_id", ErrBadMarker)
	}
	return model.Position{
		UpdatedAt: time.UnixMilli(m.UpdatedAt).UTC(),
		JobID:     m.JobID,
	}, nil
}
