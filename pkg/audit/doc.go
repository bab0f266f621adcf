// Package audit provides the append-only rotation audit trail.
//
// Every credential rotation, whether manual, scheduled, or triggered by
// the spending cap, produces one RotationEntry. Entries are written
// asynchronously by a Recorder so audit persistence never blocks a
// rotation: a failed audit write is logged and counted, but the
// credential activation it describes stands.
package audit
