// Package fixture implements the durable fixture store: loading, decoding,
// deterministic encoding, per-key change classification, and atomic writes.
//
// A fixture file is a single JSON object mapping fixture key to an ordered
// array of records, each record the canonical {"input":[...],"output":...}
// pair. The encoding is deterministic (canonical key order, canonical
// record bodies), which makes the file both machine-loadable and
// diff-friendly: an update run that observes identical behavior rewrites
// the file to identical bytes.
//
// The package holds no process-wide state. Load-once-per-path caching and
// all mutation are owned by the registry.
package fixture
