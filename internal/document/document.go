// Package document turns uploaded resume files into plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const pdfMIME = "application/pdf"

var (
	// ErrUnsupportedDocument is returned for anything but a PDF. The upload may be retried with another file.
	ErrUnsupportedDocument = errors.New("only PDF files are supported")
	// ErrExtraction is returned when a PDF could not be read.
	ErrExtraction = errors.New("text extraction failed")
)

// Extractor returns the plain text of a document.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// PDF extracts text from PDF documents.
type PDF struct {
	logger *zap.Logger
}

func NewPDF(logger *zap.Logger) *PDF {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDF{logger: logger}
}

func (p *PDF) ExtractText(ctx context.Context, data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !mt.Is(pdfMIME) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedDocument, mt.String())
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := readPlainText(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	p.logger.Debug("extracted document text",
		zap.Int("bytes", len(data)),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

// readPlainText recovers from panics raised by the pdf reader on malformed input.
func readPlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(raw)), nil
}
