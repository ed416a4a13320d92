//go:build tools

package tools

// Build-time tool dependencies, versioned through go.mod.
import (
	_ "github.com/boumenot/gocover-cobertura"
)
