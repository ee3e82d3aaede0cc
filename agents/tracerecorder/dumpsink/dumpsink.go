/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package dumpsink writes rendered trace dumps to local files or Cloud Storage.
package dumpsink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
)

// Sink persists a named dump and returns where it was written.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// File writes dumps to the local filesystem. Relative names resolve against Dir.
type File struct {
	Dir string
}

var _ Sink = File{}

// Path is where Write puts name.
func (f File) Path(name string) string {
	if f.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Dir, name)
}

// Write creates or truncates the file, creating parent directories as needed.
func (f File) Write(_ context.Context, name string, data []byte) (string, error) {
	p := f.Path(name)
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}

// GCS writes dumps named gs://bucket/object to Cloud Storage.
type GCS struct {
	once    sync.Once
	client  *storage.Client
	initErr error
}

var _ Sink = (*GCS)(nil)

// NewGCS creates a sink that uses client, or lazily creates one with default credentials when nil.
func NewGCS(client *storage.Client) *GCS {
	return &GCS{client: client}
}

func (g *GCS) storageClient(ctx context.Context) (*storage.Client, error) {
	g.once.Do(func() {
		if g.client == nil {
			g.client, g.initErr = storage.NewClient(ctx)
		}
	})
	return g.client, g.initErr
}

// Write uploads data as text/markdown.
func (g *GCS) Write(ctx context.Context, name string, data []byte) (string, error) {
	bucket, object, err := ParseGCS(name)
	if err != nil {
		return "", err
	}
	client, err := g.storageClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating storage client: %w", err)
	}

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/markdown; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing %s: %w", name, err)
	}
	return name, nil
}

// ParseGCS splits gs://bucket/object into its parts.
func ParseGCS(name string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(name, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%q is not a gs:// url", name)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%q must name a bucket and an object", name)
	}
	return bucket, object, nil
}

// Auto routes gs:// names to Cloud Storage and everything else to the local
// filesystem. Dir may itself be a gs:// prefix, in which case relative names
// are uploaded under it.
type Auto struct {
	Dir    string
	Remote Sink
}

var _ Sink = (*Auto)(nil)

// NewAuto creates a routing sink with a lazily created Cloud Storage client.
func NewAuto(dir string) *Auto {
	return &Auto{Dir: dir, Remote: NewGCS(nil)}
}

// Resolve returns the location name is written to: a gs:// url or a local path.
func (a *Auto) Resolve(name string) string {
	if strings.HasPrefix(name, "gs://") || filepath.IsAbs(name) {
		return name
	}
	if prefix, ok := strings.CutPrefix(a.Dir, "gs://"); ok {
		return "gs://" + path.Join(prefix, filepath.ToSlash(name))
	}
	return File{Dir: a.Dir}.Path(name)
}

func (a *Auto) Write(ctx context.Context, name string, data []byte) (string, error) {
	target := a.Resolve(name)
	if strings.HasPrefix(target, "gs://") {
		return a.Remote.Write(ctx, target, data)
	}
	return File{}.Write(ctx, target, data)
}
