// Package dim implements dimensional expansion of array/list templates
// (4.3 item 3): the %s / [%s] name-expansion forms governed by dim,
// dimIncrement and dimIndex.
package dim

import (
	"fmt"
	"strconv"
	"strings"
)

// Form is the name-expansion style a templated name uses.
type Form int

const (
	// FormNone: no %s/[%s] marker present.
	FormNone Form = iota
	// FormArray: name contains "[%s]", expands to N numeric indices
	// 0..dim-1. Forbidden for fields (4.3 item 3).
	FormArray
	// FormList: name contains "%s" (not bracketed), expands by
	// substituting each dimIndex token. Forbidden for peripherals.
	FormList
)

// DetectForm inspects name for the %s / [%s] markers.
func DetectForm(name string) Form {
	if strings.Contains(name, "[%s]") {
		return FormArray
	}
	if strings.Contains(name, "%s") {
		return FormList
	}
	return FormNone
}

// Plan is a fully-parsed dim template ready for expansion.
type Plan struct {
	Form         Form
	Dim          int
	Increment    int64
	Tokens       []string // one per instance; numeric for FormArray
	TemplateName string
}

// ParseDimIndex decodes the dimIndex grammar (4.3 item 3): a numeric
// range "N-M" (N<=M), an uppercase-letter range "A-Z", or a
// comma-separated token list.
func ParseDimIndex(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("dim: empty dimIndex")
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return parts, nil
	}

	if parts := strings.SplitN(s, "-", 2); len(parts) == 2 {
		lo, hi := parts[0], parts[1]
		if n1, err1 := strconv.Atoi(lo); err1 == nil {
			n2, err2 := strconv.Atoi(hi)
			if err2 != nil {
				return nil, fmt.Errorf("dim: malformed numeric dimIndex range %q", s)
			}
			if n1 > n2 {
				return nil, fmt.Errorf("dim: dimIndex range %q has start > end", s)
			}
			out := make([]string, 0, n2-n1+1)
			for i := n1; i <= n2; i++ {
				out = append(out, strconv.Itoa(i))
			}
			return out, nil
		}
		if len(lo) == 1 && len(hi) == 1 && isUpper(lo[0]) && isUpper(hi[0]) {
			if lo[0] > hi[0] {
				return nil, fmt.Errorf("dim: dimIndex letter range %q has start > end", s)
			}
			out := make([]string, 0, int(hi[0]-lo[0])+1)
			for c := lo[0]; c <= hi[0]; c++ {
				out = append(out, string(c))
			}
			return out, nil
		}
		return nil, fmt.Errorf("dim: unrecognized dimIndex range %q", s)
	}

	return []string{s}, nil
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// Build validates a dim-carrying element and produces its expansion
// Plan. name is the raw (possibly templated) name; dim/increment/index
// are the already-numlit-decoded dim-group values (nil dim means the
// attribute was absent). forField disallows FormArray; forPeripheral
// disallows FormList, per 4.3 item 3.
//
// Build returns (nil, nil) when the element has no dim marker and no
// dim count — the ordinary, non-templated case.
func Build(name string, dimCount *int, increment *int64, dimIndex []string, forField, forPeripheral bool) (*Plan, error) {
	form := DetectForm(name)

	if form == FormNone {
		if dimCount != nil {
			// Caller is expected to warn and treat as non-dim; Build
			// itself only reports the structural fact.
			return nil, nil
		}
		return nil, nil
	}

	if dimCount == nil {
		return nil, fmt.Errorf("dim: %%s/[%%s] marker present on %q with no dim attribute", name)
	}
	if form == FormArray && forField {
		return nil, fmt.Errorf("dim: array form \"[%%s]\" is forbidden for fields (%q)", name)
	}
	if form == FormList && forPeripheral {
		return nil, fmt.Errorf("dim: list form \"%%s\" is forbidden for peripherals (%q)", name)
	}

	n := *dimCount
	var inc int64
	if increment != nil {
		inc = *increment
	}

	var tokens []string
	switch form {
	case FormArray:
		tokens = make([]string, n)
		for i := 0; i < n; i++ {
			tokens[i] = strconv.Itoa(i)
		}
	case FormList:
		if dimIndex == nil {
			return nil, fmt.Errorf("dim: %%s form on %q requires dimIndex", name)
		}
		if len(dimIndex) != n {
			return nil, fmt.Errorf("dim: dimIndex length %d does not match dim=%d on %q", len(dimIndex), n, name)
		}
		tokens = dimIndex
	}

	return &Plan{
		Form:         form,
		Dim:          n,
		Increment:    inc,
		Tokens:       tokens,
		TemplateName: name,
	}, nil
}

// InstanceName renders the concrete name for instance i.
func (p *Plan) InstanceName(i int) string {
	switch p.Form {
	case FormArray:
		return strings.Replace(p.TemplateName, "[%s]", "["+p.Tokens[i]+"]", 1)
	case FormList:
		return strings.Replace(p.TemplateName, "%s", p.Tokens[i], 1)
	default:
		return p.TemplateName
	}
}

// InstanceOffset returns base + i*increment, the address/bit offset for
// instance i (4.3 item 3).
func (p *Plan) InstanceOffset(base int64, i int) int64 {
	return base + int64(i)*p.Increment
}
