// Package snapshot defines the payload built once per publish call and handed
// to every publisher, together with the small value types it is made of.
//
// The JSON encoding of Snapshot is a stable contract: destinations such as
// the console publisher serialize it verbatim, and tests assert on its shape.
package snapshot
