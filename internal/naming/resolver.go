// Package naming derives stable fixture keys from the test-context chain,
// the intercepted property name, and an occurrence index.
//
// The occurrence index is what lets several interception points share one
// breadcrumb without manual naming: the first distinct call site under a
// breadcrumb gets index 1, the next gets 2, and re-intercepting the SAME
// call site (same function identity) reuses its earlier index, so repeated
// runs of one logical site land in one reproducible fixture slot.
package naming

import (
	"strconv"
	"strings"
)

// Separator joins context names and the property into the breadcrumb.
const Separator = " > "

// Resolver allocates occurrence indices within one fixture store. It is
// not safe for concurrent use; callers serialize access (the registry
// holds its own lock).
type Resolver struct {
	// next is the count of distinct identities seen per breadcrumb.
	next map[string]int
	// seen maps (breadcrumb, function identity) to its allocated index.
	seen map[identityKey]int
}

type identityKey struct {
	breadcrumb string
	identity   uintptr
}

// NewResolver creates an empty resolver scoped to one store.
func NewResolver() *Resolver {
	return &Resolver{
		next: make(map[string]int),
		seen: make(map[identityKey]int),
	}
}

// Resolve returns the fixture key for an interception point.
//
// If explicit is non-empty it is used verbatim: the escape hatch for the
// rare auto-name collision. Otherwise the key is
//
//	"<chain[0]> > ... > <chain[n-1]> > <property> <index>"
//
// where index is allocated per (breadcrumb, identity): a previously seen
// identity reuses its index, a new identity under the same breadcrumb gets
// the next one, starting at 1.
func (r *Resolver) Resolve(chain []string, property string, identity uintptr, explicit string) string {
	if explicit != "" {
		return explicit
	}

	parts := make([]string, 0, len(chain)+1)
	parts = append(parts, chain...)
	parts = append(parts, property)
	breadcrumb := strings.Join(parts, Separator)

	ik := identityKey{breadcrumb: breadcrumb, identity: identity}
	idx, ok := r.seen[ik]
	if !ok {
		r.next[breadcrumb]++
		idx = r.next[breadcrumb]
		r.seen[ik] = idx
	}

	return breadcrumb + " " + strconv.Itoa(idx)
}

// Chain splits a hierarchical test name (as produced by testing.T.Name,
// slash-separated) into the context chain used for the breadcrumb.
func Chain(testName string) []string {
	if testName == "" {
		return nil
	}
	return strings.Split(testName, "/")
}
