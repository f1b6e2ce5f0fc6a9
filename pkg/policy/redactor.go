// Package policy implements the allowlist, dangerous-flag scanner, and
// secret redactor described in spec §4.4: the checks a tool call passes
// through before (and the masking every adapter output passes through
// after) reaching an adapter.
package policy

import (
	"regexp"
	"strings"

	"github.com/opscorehq/opscore/pkg/config"
)

// Sentinel replaces any redacted value.
const Sentinel = "[REDACTED]"

// Redactor applies value-masking to outbound text and structured payloads.
// Patterns target the value following a key-like token; key-name masking
// additionally replaces any structured value whose key looks sensitive,
// recursing into nested maps and slices.
type Redactor struct {
	valuePatterns []*regexp.Regexp
	sensitiveKeys []string
}

// NewRedactor compiles the rule set once at startup so every call to
// RedactText/RedactStructured is allocation-light.
func NewRedactor(rules config.RedactionRuleSet) (*Redactor, error) {
	compiled := make([]*regexp.Regexp, 0, len(rules.ValuePatterns))
	for _, p := range rules.ValuePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	sensitive := make([]string, len(rules.SensitiveKeyParts))
	for i, s := range rules.SensitiveKeyParts {
		sensitive[i] = strings.ToLower(s)
	}
	return &Redactor{valuePatterns: compiled, sensitiveKeys: sensitive}, nil
}

// RedactText masks every pattern match in s, replacing only the value
// portion with Sentinel and leaving the matched key token intact.
func (r *Redactor) RedactText(s string) string {
	for _, re := range r.valuePatterns {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			sub := re.FindStringSubmatch(match)
			if len(sub) < 3 {
				return match
			}
			return match[:len(match)-len(sub[2])] + Sentinel
		})
	}
	return s
}

// RedactStructured recursively masks any map value whose key contains a
// sensitive substring, and runs RedactText over every remaining string leaf.
// Non-string, non-collection values pass through unchanged.
func (r *Redactor) RedactStructured(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if r.isSensitiveKey(k) {
				out[k] = Sentinel
				continue
			}
			out[k] = r.RedactStructured(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = r.RedactStructured(vv)
		}
		return out
	case string:
		return r.RedactText(val)
	default:
		return val
	}
}

func (r *Redactor) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range r.sensitiveKeys {
		if part != "" && strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
