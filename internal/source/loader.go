// Package source loads claim documents from files, stdin or HTTP and turns
// them into plain text for extraction.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/model"
)

// ErrUnsupported is returned for references or content the loader cannot read
var ErrUnsupported = errors.New("unsupported document")

// StdinRef is the reference that reads the document from standard input
const StdinRef = "-"

// Document is a loaded notice
type Document struct {
	Name        string
	Text        string
	ContentType string
	Truncated   bool // Text was cut at the configured size limit
}

// Loader resolves document references
type Loader struct {
	fetcher  *Fetcher
	stdin    io.Reader
	maxBytes int64
	logger   *zap.Logger
}

// NewLoader creates a Loader from cfg
func NewLoader(cfg model.SourceConfig, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fetcher:  NewFetcher(cfg, logger),
		stdin:    os.Stdin,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// WithStdin replaces the reader used for StdinRef
func (l *Loader) WithStdin(r io.Reader) *Loader {
	l.stdin = r
	return l
}

// Load reads ref: "-" is stdin, http(s) URLs are fetched, anything else is a file path
func (l *Loader) Load(ctx context.Context, ref string) (*Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		doc *Document
		err error
	)
	switch {
	case ref == StdinRef:
		doc, err = l.readAll("stdin", l.stdin)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		doc, err = l.fetcher.FetchWithRetry(ctx, ref)
	case strings.Contains(ref, "://"):
		u, _ := url.Parse(ref)
		scheme := ref
		if u != nil {
			scheme = u.Scheme
		}
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, scheme)
	default:
		doc, err = l.readFile(ref)
	}
	if err != nil {
		return nil, err
	}

	return l.normalize(doc)
}

func (l *Loader) readFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupported, path)
	}
	return l.readAll(path, f)
}

func (l *Loader) readAll(name string, r io.Reader) (*Document, error) {
	data, truncated, err := readLimited(r, l.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	return &Document{
		Name:        name,
		Text:        string(data),
		ContentType: http.DetectContentType(sniff),
		Truncated:   truncated,
	}, nil
}

// normalize converts markup to text and rejects binary content
func (l *Loader) normalize(doc *Document) (*Document, error) {
	if doc.Truncated {
		l.logger.Warn("document truncated",
			zap.String("source", doc.Name),
			zap.Int64("max_bytes", l.maxBytes))
	}

	ct := strings.ToLower(doc.ContentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return nil, fmt.Errorf("%w: %s is a PDF, convert it to text first", ErrUnsupported, doc.Name)
	case isHTML(doc.ContentType, doc.Name):
		text, err := HTMLToText(strings.NewReader(doc.Text))
		if err != nil {
			return nil, fmt.Errorf("parse html %s: %w", doc.Name, err)
		}
		doc.Text = text
	case strings.HasPrefix(ct, "image/"), strings.Contains(ct, "octet-stream") && !isText([]byte(doc.Text)):
		return nil, fmt.Errorf("%w: %s has content type %s", ErrUnsupported, doc.Name, doc.ContentType)
	}

	doc.Text = strings.ReplaceAll(doc.Text, "\r\n", "\n")
	return doc, nil
}

// isText reports whether data has no NUL bytes in its first block
func isText(data []byte) bool {
	if len(data) > 512 {
		data = data[:512]
	}
	return !bytes.Contains(data, []byte{0})
}
