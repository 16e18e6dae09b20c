// Package detect abstracts plate recognition. The HTTP layer accepts either
// a raw snapshot or a manual plate override; the mock detector stands in
// until a real ANPR backend is wired.
package detect

import (
	"context"
	"strings"
)

// Reading is one recognition result for a snapshot.
type Reading struct {
	PlateText  string
	Confidence float64
}

// Detector turns a camera snapshot into a plate reading.
type Detector interface {
	Detect(ctx context.Context, snapshot []byte, override string) (Reading, error)
}

// Mock echoes the manual override with full confidence and reports UNKNOWN
// for anything else.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (*Mock) Detect(_ context.Context, _ []byte, override string) (Reading, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return Reading{PlateText: strings.ToUpper(trimmed), Confidence: 0.99}, nil
	}
	return Reading{PlateText: "UNKNOWN", Confidence: 0.0}, nil
}
