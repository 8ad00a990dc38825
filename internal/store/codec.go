package store

import (
	"encoding/json"
	"fmt"

	"pdvcaixa/internal/domain"
)

// Encode serializes a snapshot with only the persisted fields.
func Encode(snapshot domain.Snapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

// Decode parses a stored document. Unknown keys such as a cart written by
// older builds are ignored.
func Decode(payload []byte) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snapshot, nil
}
