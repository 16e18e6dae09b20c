package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewID produces short prefixed identifiers such as "USR-3F2A1B".
func NewID(prefix string) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + hex[:6]
}
