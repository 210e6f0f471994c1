// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ops defines operator identities (qualified names) and the operator registry a backend
// exposes.
//
// A qualified name has the form "<namespace>::<base>.<overload>", e.g. "aten::cumsum.default".
// It identifies exactly one callable signature within a Registry.
package ops

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultOverload is the overload name used when a name has no explicit overload.
const DefaultOverload = "default"

// Qualname is the identity of one operator overload.
type Qualname struct {
	Namespace, Base, Overload string
}

// Parse a qualified name. The overload is optional and defaults to DefaultOverload.
func Parse(name string) (Qualname, error) {
	name = strings.TrimSpace(name)
	nsIdx := strings.Index(name, "::")
	if nsIdx <= 0 {
		return Qualname{}, errors.Errorf("invalid operator name %q: missing \"<namespace>::\" prefix", name)
	}
	q := Qualname{Namespace: name[:nsIdx]}
	rest := name[nsIdx+2:]
	if dotIdx := strings.Index(rest, "."); dotIdx >= 0 {
		q.Base, q.Overload = rest[:dotIdx], rest[dotIdx+1:]
	} else {
		q.Base, q.Overload = rest, DefaultOverload
	}
	if q.Base == "" || q.Overload == "" || strings.ContainsAny(q.Overload, ".: ") {
		return Qualname{}, errors.Errorf("invalid operator name %q", name)
	}
	return q, nil
}

// MustParse is like Parse, but panics on error.
func MustParse(name string) Qualname {
	q, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return q
}

// ParseAll parses a list of qualified names.
func ParseAll(names []string) ([]Qualname, error) {
	qs := make([]Qualname, 0, len(names))
	for _, name := range names {
		q, err := Parse(name)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, nil
}

// String implements fmt.Stringer, e.g. "aten::cumsum.default".
func (q Qualname) String() string {
	return q.Namespace + "::" + q.Base + "." + q.Overload
}

// FileName returns a file-system friendly version of the name, e.g. "aten_cumsum_default".
func (q Qualname) FileName() string {
	return q.Namespace + "_" + q.Base + "_" + q.Overload
}

