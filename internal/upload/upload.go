// Package upload publishes task attachments to external file hosting.
package upload

import (
	"context"
	"errors"
	"io"
)

var ErrDisabled = errors.New("file hosting is not configured")

type Uploader interface {
	// Upload stores the content under name and returns a public URL.
	Upload(ctx context.Context, r io.Reader, name string) (string, error)
}

// FileSource downloads a file the chat transport already holds.
type FileSource interface {
	Open(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

type disabled struct{}

func (disabled) Upload(context.Context, io.Reader, string) (string, error) { return "", ErrDisabled }

// Disabled is used when no hosting credential is configured.
var Disabled Uploader = disabled{}
