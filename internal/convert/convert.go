// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns raw paper documents (PDF bytes) into analyzable
// text. Backends (pdftotext, markitdown) implement the Converter interface;
// the factory resolves the configured backend.
// See docs/ARCHITECTURE.md § Document Structuring.
package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/library-index/internal/container"
	"github.com/pdiddy/library-index/pkg/types"
)

// Converter is the document-structuring capability: raw document bytes in,
// analyzable text out.
type Converter interface {
	// ToText converts one raw document. An empty conversion result is an
	// error; downstream analysis has nothing to work with.
	ToText(ctx context.Context, raw []byte) (string, error)
}

// New resolves the configured backend to a concrete converter.
func New(cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case types.BackendPdftotext, "":
		return NewPdftotextConverter()
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, fmt.Errorf("markitdown backend: %w", err)
		}
		return NewMarkitdownConverter(rt)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q (supported: pdftotext, markitdown)", cfg.Backend)
	}
}

// cleanText collapses the control characters and repeated blank lines that
// PDF extraction tools leave behind.
func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t\f\r")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			b.WriteByte('\n')
			continue
		}
		blank = 0
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
