// Package serde defines the primitives to serialize and deserialize (serde)
// the data models of the toolkit.
//
// A data model implements the Message interface and registers a format engine
// for every format it supports. The context passed around picks the format
// and carries the factories required to deserialize nested messages.
//
package serde

import "io"

// Message is the interface that a data model should implement to be
// serialized.
type Message interface {
	// Serialize returns the serialized form of the message using the format
	// of the context.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to deserialize a data model from its
// raw representation.
type Factory interface {
	// Deserialize returns the message associated to the data using the format
	// of the context.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is the interface to implement to write a deterministic binary
// representation of a data model, so that it can be fed to a hash function.
type Fingerprinter interface {
	// Fingerprint writes itself to the writer in a deterministic way.
	Fingerprint(writer io.Writer) error
}

// Format is the identifier type of a format implementation.
type Format string

const (
	// FormatJSON is the identifier of the JSON format.
	FormatJSON Format = "JSON"
)

// FormatEngine is the interface to implement to encode and decode a specific
// data model in a specific format.
type FormatEngine interface {
	// Encode encodes the message using the context of the format.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode decodes the data into a message using the context of the format.
	Decode(ctx Context, data []byte) (Message, error)
}

// ContextEngine is the interface to implement to create a context for a given
// format.
type ContextEngine interface {
	// GetFormat returns the name of the format of the context.
	GetFormat() Format

	// Marshal returns the data of the message according to the format of the
	// context.
	Marshal(message interface{}) ([]byte, error)

	// Unmarshal populates the message with the data according to the format
	// of the context.
	Unmarshal(data []byte, message interface{}) error
}

// Context is the context passed to the serialization and deserialization
// functions. It carries the format and the factories that the engines may
// need.
type Context struct {
	ContextEngine

	factories map[interface{}]interface{}
}

// NewContext returns a new context from the engine.
func NewContext(engine ContextEngine) Context {
	return Context{
		ContextEngine: engine,
		factories:     make(map[interface{}]interface{}),
	}
}

// WithFactory returns a new context with the factory assigned to the key.
func WithFactory(ctx Context, key interface{}, factory interface{}) Context {
	factories := make(map[interface{}]interface{})
	for key, value := range ctx.factories {
		factories[key] = value
	}

	factories[key] = factory

	ctx.factories = factories

	return ctx
}

// GetFactory returns the factory assigned to the key, or nil if the key is
// not set.
func (ctx Context) GetFactory(key interface{}) interface{} {
	return ctx.factories[key]
}
