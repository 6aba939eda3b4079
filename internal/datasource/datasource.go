// Package datasource acquires the raw text of the dispatch and picklist
// exports.
//
// Acquisition is the only blocking step of an audit: a Source is opened,
// read to completion and decoded to UTF-8 before any parsing starts.
package datasource

import (
	"bytes"
	"context"
	"io"
)

// Source opens an export for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Named is implemented by sources that can describe themselves in logs.
type Named interface {
	Name() string
}

// NameOf returns the source name, or "unnamed".
func NameOf(src Source) string {
	if n, ok := src.(Named); ok {
		return n.Name()
	}
	return "unnamed"
}

// Memory is a Source over an in-memory byte slice.
type Memory struct {
	name string
	data []byte
}

// NewMemory returns a Source serving data under name.
func NewMemory(name string, data []byte) *Memory {
	return &Memory{name: name, data: data}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}
