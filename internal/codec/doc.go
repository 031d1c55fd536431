// Package codec encodes publish payloads for destinations that store them.
//
// Two formats are supported. JSON is the wire shape of a snapshot and the
// default. CBOR uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. The same
// snapshot always produces identical bytes, which makes archived events
// content-addressable. Struct fields are keyed by their json tags in both
// formats.
package codec
