package interfaces

import (
	"context"
)

// DocumentEncoder turns line-oriented report text into a binary document
type DocumentEncoder interface {
	// Encode renders the report text. Markdown-style "#", "##", "###" prefixes mark headings.
	Encode(text string) ([]byte, error)

	// Format is the short format name, also used as the file extension ("docx", "pdf")
	Format() string
}

// FileSink is the durable storage the exporter writes to.
// Write must not return before the bytes are durable at path.
type FileSink interface {
	Write(ctx context.Context, path string, data []byte) error
}
