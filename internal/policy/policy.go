// Package policy holds the severity to allowed-age mapping read from the
// remediation policy document.
package policy

import (
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

// Namespace is the top-level key of the document holding the thresholds
const Namespace = "secret-scanning"

// Policy maps a severity to the number of days a finding may stay open.
// Values are kept as decoded and only converted on lookup.
type Policy struct {
	thresholds map[string]interface{}
}

// ParseError reports a policy document that is not valid YAML or has the
// wrong shape
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing policy document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ThresholdError reports a configured threshold that is negative or not a number
type ThresholdError struct {
	Severity string
	Value    interface{}
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("policy %s.%s: allowed age must be a non-negative number, got %v", Namespace, e.Severity, e.Value)
}

// Parse decodes a policy document. A document without the namespace yields an
// empty policy in which every lookup is absent.
func Parse(data []byte) (*Policy, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	p := &Policy{thresholds: map[string]interface{}{}}
	section, ok := doc[Namespace]
	if !ok || section == nil {
		return p, nil
	}

	switch m := section.(type) {
	case map[string]interface{}:
		for k, v := range m {
			p.thresholds[k] = v
		}
	case map[interface{}]interface{}:
		for k, v := range m {
			p.thresholds[fmt.Sprint(k)] = v
		}
	default:
		return nil, &ParseError{Err: fmt.Errorf("%q must be a mapping, got %T", Namespace, section)}
	}

	return p, nil
}

// New builds a policy from already decoded thresholds
func New(thresholds map[string]interface{}) *Policy {
	p := &Policy{thresholds: make(map[string]interface{}, len(thresholds))}
	for k, v := range thresholds {
		p.thresholds[k] = v
	}
	return p
}

// Lookup returns the raw threshold configured for a severity
func (p *Policy) Lookup(severity string) (interface{}, bool) {
	v, ok := p.thresholds[severity]
	return v, ok
}

// AllowedDays returns the allowed age in days for a severity. ok is false when
// the severity is not configured.
func (p *Policy) AllowedDays(severity string) (days float64, ok bool, err error) {
	raw, ok := p.Lookup(severity)
	if !ok {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		days = float64(v)
	case int64:
		days = float64(v)
	case uint64:
		days = float64(v)
	case float64:
		days = v
	default:
		return 0, true, &ThresholdError{Severity: severity, Value: raw}
	}

	if days < 0 || math.IsNaN(days) {
		return 0, true, &ThresholdError{Severity: severity, Value: raw}
	}
	return days, true, nil
}

// Severities returns the configured severities in sorted order
func (p *Policy) Severities() []string {
	keys := make([]string, 0, len(p.thresholds))
	for k := range p.thresholds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Empty returns true if no thresholds are configured
func (p *Policy) Empty() bool {
	return len(p.thresholds) == 0
}
