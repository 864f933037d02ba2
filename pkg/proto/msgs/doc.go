// Package msgs defines the typed payloads carried by protocol frames.
package msgs

// Every payload encodes field by field, multi-byte integers in
// little-endian order, so the wire layout is independent of host
// struct layout. Decoders validate the payload length before touching
// any field and fail with ErrBadLength otherwise.
