// This file contains fake implementations of the serialization interfaces.
//

package fake

import (
	"encoding/json"
	"io"

	"go.dedis.ch/prova/serde"
)

// Format is the format of the fake context engine.
const Format serde.Format = "FakeFormat"

// ContextEngine is a fake implementation of serde.ContextEngine.
type ContextEngine struct {
	format serde.Format
	err    error
}

// NewContext returns a fake serialization context using the JSON encoding
// under the hood.
func NewContext() serde.Context {
	return serde.NewContext(ContextEngine{format: serde.FormatJSON})
}

// NewBadContext returns a fake context that returns an error when
// appropriate.
func NewBadContext() serde.Context {
	return serde.NewContext(ContextEngine{format: Format, err: fakeErr})
}

// NewContextWithFormat returns a fake context with the format.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(ContextEngine{format: f})
}

// GetFormat implements serde.ContextEngine.
func (ctx ContextEngine) GetFormat() serde.Format {
	return ctx.format
}

// Marshal implements serde.ContextEngine.
func (ctx ContextEngine) Marshal(m interface{}) ([]byte, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}

	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine.
func (ctx ContextEngine) Unmarshal(data []byte, m interface{}) error {
	if ctx.err != nil {
		return ctx.err
	}

	return json.Unmarshal(data, m)
}

// Message is a fake implementation of serde.Message.
type Message struct {
	err error
}

// NewBadMessage returns a fake message that returns an error when
// appropriate.
func NewBadMessage() Message {
	return Message{err: fakeErr}
}

// Serialize implements serde.Message.
func (m Message) Serialize(serde.Context) ([]byte, error) {
	return []byte("fake"), m.err
}

// Fingerprinter is a fake implementation of serde.Fingerprinter.
type Fingerprinter struct {
	data []byte
	err  error
}

// NewFingerprinter returns a fingerprinter writing the data.
func NewFingerprinter(data []byte) Fingerprinter {
	return Fingerprinter{data: data}
}

// NewBadFingerprinter returns a fingerprinter that returns an error when
// appropriate.
func NewBadFingerprinter() Fingerprinter {
	return Fingerprinter{err: fakeErr}
}

// Fingerprint implements serde.Fingerprinter.
func (f Fingerprinter) Fingerprint(w io.Writer) error {
	if f.err != nil {
		return f.err
	}

	_, err := w.Write(f.data)

	return err
}
