// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const binPdftotext = "pdftotext"

// PdftotextConverter converts PDFs by piping them through the poppler
// pdftotext binary ("-" arguments read stdin and write stdout).
type PdftotextConverter struct {
	bin string
}

// NewPdftotextConverter verifies the pdftotext binary is on PATH.
func NewPdftotextConverter() (*PdftotextConverter, error) {
	path, err := exec.LookPath(binPdftotext)
	if err != nil {
		return nil, fmt.Errorf("pdftotext not found on PATH: %w", err)
	}
	return &PdftotextConverter{bin: path}, nil
}

// ToText runs pdftotext over the raw PDF bytes.
func (c *PdftotextConverter) ToText(ctx context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty document")
	}

	cmd := exec.CommandContext(ctx, c.bin, "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(raw)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	text := cleanText(out.String())
	if text == "" {
		return "", fmt.Errorf("pdftotext produced empty output")
	}
	return text, nil
}
