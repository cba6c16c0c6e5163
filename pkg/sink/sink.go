// Package sink abstracts where the finished WACZ bytes land: a local
// file (the default) or an S3-compatible object store.
package sink

import "io"

// Sink is an append-only destination for the streaming ZIP writer.
// Abort is called whenever the run fails or is cancelled, so the caller
// never leaves partial output behind.
type Sink interface {
	io.Writer
	io.Closer

	// Abort removes whatever partial output has been written so far. It
	// is always safe to call, including after Close.
	Abort() error
}
