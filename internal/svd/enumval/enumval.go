// Package enumval implements the EnumeratedValueContainer processing
// rules of 4.3: wildcard "x"-bit expansion, uniqueness validation,
// isDefault coverage synthesis, and numeric sort.
package enumval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/model"
	"github.com/sarchlab/svdmodel/internal/svd/numlit"
)

// rawValue is the (name, description, literal, isDefault) a raw record
// maps onto before wildcard expansion.
type rawValue struct {
	name        string
	description string
	literal     string // numeric literal, may contain x/X wildcard bits
	isDefault   bool
}

// Expand performs the full per-container pipeline: wildcard expansion,
// duplicate dropping, isDefault synthesis, and final numeric sort.
// width is the owning field's bit width. path is used for diagnostics.
func Expand(values []rawValue, width uint32, path string, sink diag.Warner) ([]*model.EnumeratedValue, error) {
	var out []*model.EnumeratedValue
	seenNames := map[string]bool{}
	seenValues := map[uint64]bool{}
	var defaultEntry *rawValue
	defaultCount := 0

	maxValue := uint64(1)<<width - 1

	for _, rv := range values {
		if rv.literal == "" {
			if rv.isDefault {
				defaultCount++
				if defaultCount > 1 {
					return nil, fmt.Errorf("enumval: multiple isDefault entries at %s", path)
				}
				cp := rv
				defaultEntry = &cp
				continue
			}
			return nil, fmt.Errorf("enumval: enumerated value %q at %s has neither a value nor isDefault", rv.name, path)
		}

		if rv.isDefault {
			sink.Warnf(diag.KindDefaultValueCombo, path, "enumerated value %q carries isDefault alongside an explicit value, value kept and isDefault honored", rv.name)
		}

		expanded, err := expandWildcard(rv.literal)
		if err != nil {
			return nil, fmt.Errorf("enumval: %s at %s: %w", rv.name, path, err)
		}

		for _, v := range expanded {
			if v > maxValue {
				sink.Warnf(diag.KindOversizedValue, path, "enumerated value %q = %d exceeds 2^%d-1, dropped", rv.name, v, width)
				continue
			}
			if seenValues[v] {
				sink.Warnf(diag.KindDuplicateName, path, "duplicate enumerated value %d, dropped", v)
				continue
			}
			name := rv.name
			if len(expanded) > 1 {
				name = fmt.Sprintf("%s_%d", rv.name, v)
			}
			if seenNames[name] {
				sink.Warnf(diag.KindDuplicateName, path, "duplicate enumerated value name %q, dropped", name)
				continue
			}
			seenNames[name] = true
			seenValues[v] = true
			out = append(out, &model.EnumeratedValue{
				Name:        name,
				Description: rv.description,
				Value:       v,
				IsDefault:   rv.isDefault,
			})
		}
	}

	if defaultEntry != nil {
		n := 0
		for v := uint64(0); v <= maxValue; v++ {
			if seenValues[v] {
				continue
			}
			name := fmt.Sprintf("%s_%d", defaultEntry.name, v)
			out = append(out, &model.EnumeratedValue{
				Name:        name,
				Description: defaultEntry.description,
				Value:       v,
				IsDefault:   true,
			})
			n++
		}
		if n == 0 {
			sink.Warnf(diag.KindStrayWhitespace, path, "isDefault entry %q covers no remaining values", defaultEntry.name)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })

	return out, nil
}

// expandWildcard enumerates every concrete value a literal containing
// x/X wildcard bits denotes (4.3: "0b11xx yields four concrete values
// by enumerating {0,1} over each x").
func expandWildcard(literal string) ([]uint64, error) {
	lower := strings.ToLower(literal)
	var bitsStr string
	switch {
	case strings.HasPrefix(lower, "0b"):
		bitsStr = lower[2:]
	case strings.HasPrefix(lower, "#"):
		bitsStr = lower[1:]
	default:
		if strings.HasPrefix(strings.TrimPrefix(lower, "+"), "0x") || !strings.Contains(lower, "x") {
			v, err := numlit.ParseInt(literal)
			if err != nil {
				return nil, err
			}
			return []uint64{uint64(v)}, nil
		}
		return nil, fmt.Errorf("wildcard literal %q must use 0b/# binary form", literal)
	}

	if !strings.Contains(bitsStr, "x") {
		v, err := numlit.ParseInt(literal)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(v)}, nil
	}

	var wildcardPositions []int
	for i, c := range bitsStr {
		if c != '0' && c != '1' && c != 'x' {
			return nil, fmt.Errorf("invalid binary literal %q", literal)
		}
		if c == 'x' {
			wildcardPositions = append(wildcardPositions, i)
		}
	}

	n := len(wildcardPositions)
	out := make([]uint64, 0, 1<<n)
	base := []byte(bitsStr)
	for combo := 0; combo < (1 << n); combo++ {
		bits := make([]byte, len(base))
		copy(bits, base)
		for i, pos := range wildcardPositions {
			if combo&(1<<i) != 0 {
				bits[pos] = '1'
			} else {
				bits[pos] = '0'
			}
		}
		var v uint64
		for _, b := range bits {
			v <<= 1
			if b == '1' {
				v |= 1
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func parsePlainInt(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%v", &v)
	return v, err
}

// RawValue is the package-external constructor for rawValue, used by
// the process package to hand over decoded-but-unexpanded enumerated
// value records.
type RawValue = rawValue

// NewRawValue builds a RawValue.
func NewRawValue(name, description, literal string, isDefault bool) RawValue {
	return rawValue{name: name, description: description, literal: literal, isDefault: isDefault}
}
