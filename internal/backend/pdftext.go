package backend

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// TextReader extracts document text prior to analysis. Both backends run
// the analysis model over text, not raw PDF bytes.
type TextReader interface {
	ReadText(ctx context.Context, path string, preserveLayout bool) (string, error)
}

// PdfToText extracts text using the pdftotext CLI for PDFs and reads other
// files directly.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText reader. Empty binPath means "pdftotext"
// on PATH.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ReadText returns the document's text. preserveLayout keeps columnar
// layout, which table extraction depends on.
func (p *PdfToText) ReadText(ctx context.Context, path string, preserveLayout bool) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "backend: read document %s", path)
		}
		return string(data), nil
	}

	args := []string{}
	if preserveLayout {
		args = append(args, "-layout")
	}
	args = append(args, path, "-")
	cmd := exec.CommandContext(ctx, p.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "backend: pdftotext failed for %s: %s", path, stderr.String())
	}

	return stdout.String(), nil
}
