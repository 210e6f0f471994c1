package priority

import (
	"regexp"
	"strings"

	"github.com/gomlx/opparity/pkg/core/ops"
	"k8s.io/klog/v2"
)

// Candidate is an operator reference found in a mention, before validation.
type Candidate struct {
	// Base name of the operator, e.g. "cumsum".
	Base string

	// Suffix is what follows the base name, without the leading dot (e.g. "out", or "dim.out"). Empty if
	// the reference has no overload.
	Suffix string
}

// Extractor finds candidate operator references in the text of a mention.
type Extractor interface {
	Extract(body string) []Candidate
}

// Validator resolves a candidate to a known operator, returning false if it is not one.
type Validator interface {
	Validate(c Candidate) (ops.Qualname, bool)
}

// DefaultPattern matches references like "aten::cumsum", "torch.ops.aten.cumsum.out", "torch.cumsum" or
// "request: cumsum". It must have the named groups "op" and "suffix".
var DefaultPattern = regexp.MustCompile(
	`(?:aten::|torch\.ops\.aten\.|torch\.|request:\s*)(?P<op>[a-zA-Z_][a-zA-Z0-9_]*)(?P<suffix>(?:\.[a-zA-Z0-9_]+)*)`)

// RegexpExtractor extracts candidates with a regular expression with the named groups "op" and "suffix".
type RegexpExtractor struct {
	Pattern *regexp.Regexp
}

// NewExtractor returns a RegexpExtractor using DefaultPattern.
func NewExtractor() *RegexpExtractor {
	return &RegexpExtractor{Pattern: DefaultPattern}
}

// Extract implements Extractor.
func (e *RegexpExtractor) Extract(body string) []Candidate {
	opIdx, suffixIdx := e.Pattern.SubexpIndex("op"), e.Pattern.SubexpIndex("suffix")
	var candidates []Candidate
	for _, match := range e.Pattern.FindAllStringSubmatch(body, -1) {
		c := Candidate{Base: match[opIdx]}
		if suffixIdx >= 0 {
			c.Suffix = strings.TrimPrefix(match[suffixIdx], ".")
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// RegistryValidator accepts candidates naming an operator overload present in Registry.
// A candidate without suffix refers to the default overload.
type RegistryValidator struct {
	Registry  *ops.Registry
	Namespace string
}

// NewValidator returns a RegistryValidator for the "aten" namespace of registry.
func NewValidator(registry *ops.Registry) *RegistryValidator {
	return &RegistryValidator{Registry: registry, Namespace: ops.Aten}
}

// Validate implements Validator.
func (v *RegistryValidator) Validate(c Candidate) (ops.Qualname, bool) {
	q := ops.Qualname{Namespace: v.Namespace, Base: c.Base, Overload: c.Suffix}
	if q.Overload == "" {
		q.Overload = ops.DefaultOverload
	}
	if !v.Registry.Has(q) {
		if v.Registry.HasBase(q.Namespace, q.Base) {
			klog.V(2).Infof("%s: unknown overload %q", c.Base, q.Overload)
		}
		return ops.Qualname{}, false
	}
	return q, true
}
