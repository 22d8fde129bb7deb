// Package registry defines the format registry for the serde package.
//
// Documentation Last Review: 07.10.2020
//
package registry

import "go.dedis.ch/prova/serde"

// Registry is an interface to register and get format engines.
type Registry interface {
	// Register takes a format name and its engine and registers them so that
	// the format can be looked up later.
	Register(serde.Format, serde.FormatEngine)

	// Get returns the format engine associated with the format name.
	Get(serde.Format) serde.FormatEngine
}
