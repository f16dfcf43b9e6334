package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKeyFormat(t *testing.T) {
	r := NewResolver()
	key := r.Resolve([]string{"t"}, "f", 0x1, "")
	assert.Equal(t, "t > f 1", key)
}

func TestResolveNestedChain(t *testing.T) {
	r := NewResolver()
	key := r.Resolve([]string{"TestOuter", "inner"}, "fetch", 0x1, "")
	assert.Equal(t, "TestOuter > inner > fetch 1", key)
}

func TestResolveSameIdentityReusesIndex(t *testing.T) {
	r := NewResolver()
	first := r.Resolve([]string{"t"}, "f", 0xA, "")
	second := r.Resolve([]string{"t"}, "f", 0xA, "")
	assert.Equal(t, first, second)
}

func TestResolveDistinctIdentitiesGetDistinctIndices(t *testing.T) {
	r := NewResolver()
	a := r.Resolve([]string{"t"}, "f", 0xA, "")
	b := r.Resolve([]string{"t"}, "f", 0xB, "")
	c := r.Resolve([]string{"t"}, "f", 0xC, "")

	assert.Equal(t, "t > f 1", a)
	assert.Equal(t, "t > f 2", b)
	assert.Equal(t, "t > f 3", c)

	// Revisiting an earlier identity still reuses its slot.
	assert.Equal(t, a, r.Resolve([]string{"t"}, "f", 0xA, ""))
	assert.Equal(t, b, r.Resolve([]string{"t"}, "f", 0xB, ""))
}

func TestResolveIndicesAreScopedPerBreadcrumb(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, "t > f 1", r.Resolve([]string{"t"}, "f", 0xA, ""))
	assert.Equal(t, "t > g 1", r.Resolve([]string{"t"}, "g", 0xB, ""))
	assert.Equal(t, "u > f 1", r.Resolve([]string{"u"}, "f", 0xC, ""))
}

func TestResolveExplicitNameWinsVerbatim(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, "my-name", r.Resolve([]string{"t"}, "f", 0xA, "my-name"))
	// Explicit names do not consume an occurrence index.
	assert.Equal(t, "t > f 1", r.Resolve([]string{"t"}, "f", 0xB, ""))
}

func TestChain(t *testing.T) {
	assert.Nil(t, Chain(""))
	assert.Equal(t, []string{"TestX"}, Chain("TestX"))
	assert.Equal(t, []string{"TestX", "sub", "case_1"}, Chain("TestX/sub/case_1"))
}
