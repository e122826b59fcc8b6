//go:build tools

// Package netquiz pins mockgen so the //go:generate lines in contract and
// infrastructure/storage resolve the same version go.mod records.
package netquiz

import (
	_ "go.uber.org/mock/mockgen"
)
