// Package canon provides the deterministic value model and RFC 8785
// canonical JSON serialization used for fixture identity and storage.
//
// Canonical serialization serves two masters and must satisfy both:
//
//  1. Identity: two calls are "the same call" exactly when their converted
//     inputs marshal to the same bytes. Matching never inspects structure,
//     only canonical text.
//  2. Storage: the persisted fixture text is canonical JSON, so a re-record
//     that observes identical behavior produces a byte-identical file and a
//     clean diff in version control.
//
// Determinism rules:
//
//   - Object keys sorted by UTF-16 code units (RFC 8785 §3.2.3)
//   - NFC normalization of strings at the serialization boundary
//   - ECMA-262 shortest round-trip number rendering
//   - No HTML escaping, no whitespace
//
// Serialization must not depend on Go value identity, map insertion order,
// or any other non-deterministic traversal.
package canon
