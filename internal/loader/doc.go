// Package loader reads request documents from disk.
//
// A request document holds one serialized request envelope, the same JSON
// that crosses the host boundary. Three source formats are accepted:
//
//	.json        the envelope itself
//	.yaml, .yml  the envelope as YAML; mapping order is kept
//	.cue         a CUE file whose value is the envelope
//
// Every document is normalized to JSON and checked against an embedded CUE
// schema before it is decoded, so structural mistakes are reported with the
// offending path instead of as a generic decode error.
package loader
