// Package extract turns the text of an automobile loss notice into a
// model.ClaimRecord using a declarative table of regular-expression rules.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/claimflow/internal/keywords"
	"github.com/ppiankov/claimflow/internal/model"
)

// ErrInvalidRule is returned by New when a rule cannot be compiled or is malformed
var ErrInvalidRule = errors.New("invalid extraction rule")

// injuryTerms classify the whole document as an injury claim
var injuryTerms = []string{"injured", "injury", "extent of injury"}

// Extractor applies a compiled rule table. Safe for concurrent use.
type Extractor struct {
	rules      []compiledRule
	injury     *keywords.Set
	version    string
	definition []Rule
}

type compiledRule struct {
	Rule
	primary *regexp.Regexp
	extra   []*regexp.Regexp
}

// New compiles rules. Patterns get case-insensitive and multi-line flags.
func New(rules []Rule) (*Extractor, error) {
	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[string]bool, len(rules))

	for _, r := range rules {
		if r.Field == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidRule)
		}
		if seen[r.Field] {
			return nil, fmt.Errorf("%w: duplicate field %s", ErrInvalidRule, r.Field)
		}
		seen[r.Field] = true

		if r.Assign == nil {
			return nil, fmt.Errorf("%w: %s has no assign func", ErrInvalidRule, r.Field)
		}

		re, err := compile(r.Pattern, r.Group)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Field, err)
		}

		cr := compiledRule{Rule: r, primary: re}
		for i, c := range r.Extra {
			xre, err := compile(c.Pattern, c.Group)
			if err != nil {
				return nil, fmt.Errorf("%w: %s extra capture %d: %v", ErrInvalidRule, r.Field, i, err)
			}
			cr.extra = append(cr.extra, xre)
		}
		compiled = append(compiled, cr)
	}

	definition := make([]Rule, len(rules))
	copy(definition, rules)

	return &Extractor{
		rules:      compiled,
		injury:     keywords.New(injuryTerms...),
		version:    Fingerprint(rules),
		definition: definition,
	}, nil
}

func compile(pattern string, group int) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("empty pattern")
	}
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		return nil, err
	}
	if group < 0 || group > re.NumSubexp() {
		return nil, fmt.Errorf("group %d out of range, pattern has %d", group, re.NumSubexp())
	}
	return re, nil
}

var (
	defaultOnce      sync.Once
	defaultExtractor *Extractor
)

// Default returns the extractor for DefaultRules.
// It panics if the built-in table does not compile.
func Default() *Extractor {
	defaultOnce.Do(func() {
		e, err := New(DefaultRules())
		if err != nil {
			panic(err)
		}
		defaultExtractor = e
	})
	return defaultExtractor
}

// Extract builds a ClaimRecord from text. Fields whose rule does not match,
// or whose value cleans to nothing, are left absent. It never fails.
func (e *Extractor) Extract(text string) model.ClaimRecord {
	rec := model.ClaimRecord{
		AssetDetails: model.AssetDetails{AssetType: model.DefaultAssetType},
	}

	for _, r := range e.rules {
		if v, ok := r.apply(text); ok {
			r.Assign(&rec, v)
		}
	}

	rec.OtherFields.ClaimType = e.classify(text)
	return rec
}

// ExtractField runs the rule for a single field.
// ok is false when the field has no rule or nothing was found.
func (e *Extractor) ExtractField(field, text string) (string, bool) {
	for _, r := range e.rules {
		if r.Field == field {
			return r.apply(text)
		}
	}
	return "", false
}

func (e *Extractor) classify(text string) string {
	if e.injury.Contains(text) {
		return model.ClaimTypeInjury
	}
	return model.ClaimTypePropertyDamage
}

// Rules returns a copy of the rule table in evaluation order
func (e *Extractor) Rules() []Rule {
	out := make([]Rule, len(e.definition))
	copy(out, e.definition)
	return out
}

// Version fingerprints the rule table
func (e *Extractor) Version() string {
	return e.version
}

func (r compiledRule) apply(text string) (string, bool) {
	if len(r.extra) == 0 {
		v := Clean(capture(r.primary, r.Group, text))
		return v, v != "" && len(v) > r.MinLen
	}

	parts := make([]string, 0, 1+len(r.extra))
	if p := Clean(capture(r.primary, r.Group, text)); p != "" {
		parts = append(parts, p)
	}
	for i, re := range r.extra {
		if p := Clean(capture(re, r.Extra[i].Group, text)); p != "" {
			parts = append(parts, p)
		}
	}

	v := Clean(strings.Join(parts, ", "))
	return v, v != "" && len(v) > r.MinLen
}

func capture(re *regexp.Regexp, group int, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil || group >= len(m) {
		return ""
	}
	return m[group]
}
