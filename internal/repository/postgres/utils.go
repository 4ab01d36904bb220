package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/kirinyoku/park-go/internal/domain"
)

// wrapDBErr maps common DB errors to repository-level errors and wraps them with
// the provided operation name.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", op, translateDBErr(err))
}

func encodeGeometry(g domain.Geometry) ([]byte, error) {
	return json.Marshal(g)
}

func decodeGeometry(b []byte) (domain.Geometry, error) {
	var g domain.Geometry
	if len(b) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(b, &g); err != nil {
		return g, err
	}
	return g, nil
}
