package firestore

import (
	"encoding/json"
	"fmt"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

// The payload is kept as JSON bytes so its field names match the emitted event.
func marshalPayload(p domain.ProbePayload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

func unmarshalPayload(b []byte) (domain.ProbePayload, error) {
	var p domain.ProbePayload
	if len(b) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
