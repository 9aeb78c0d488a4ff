// Package layout computes concrete field offsets, packing/alignment, MMIO
// layouts, and the built-in sequence-type layouts (Array, Vec, Span,
// ReadOnlySpan) that the MIR builder and reflection emitter consult for
// size/align/offset information.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MinAlign is the floor every computed struct alignment is rounded up to,
// matching §4.5 step 3 of the specification ("floored to MIN_ALIGN").
const MinAlign = 1

// TargetProfile describes the machine the layout engine computes offsets
// for: pointer width, minimum alignment, and byte order. Loadable from a
// YAML fixture so tests and the smoke CLI can select a target without
// recompiling (teacher precedent: internal/eval_harness's YAML spec/model
// loading).
type TargetProfile struct {
	PointerWidth int    `yaml:"pointer_width"`
	MinAlign     int    `yaml:"min_align"`
	Endianness   string `yaml:"endianness"` // "little" | "big"
}

// Default64 is the profile used when no TargetProfile is supplied: an
// LP64-shaped target (8-byte pointers/words, little-endian).
func Default64() TargetProfile {
	return TargetProfile{PointerWidth: 8, MinAlign: 1, Endianness: "little"}
}

// LoadTargetProfile reads a TargetProfile from a YAML file.
func LoadTargetProfile(path string) (TargetProfile, error) {
	var p TargetProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("layout: reading target profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("layout: parsing target profile %s: %w", path, err)
	}
	if p.PointerWidth == 0 {
		p.PointerWidth = 8
	}
	if p.MinAlign == 0 {
		p.MinAlign = 1
	}
	if p.Endianness == "" {
		p.Endianness = "little"
	}
	return p, nil
}
