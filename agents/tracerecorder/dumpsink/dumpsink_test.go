/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dumpsink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileWrite(t *testing.T) {
	dir := t.TempDir()
	sink := File{Dir: dir}

	written, err := sink.Write(context.Background(), "nested/trace.md", []byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := filepath.Join(dir, "nested", "trace.md"); written != want {
		t.Errorf("written: got = %q, wanted = %q", written, want)
	}
	got, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content: got = %q, wanted = hello", got)
	}

	abs := filepath.Join(t.TempDir(), "abs.md")
	written, err = sink.Write(context.Background(), abs, []byte("x"))
	if err != nil {
		t.Fatalf("Write absolute: %v", err)
	}
	if written != abs {
		t.Errorf("written: got = %q, wanted = %q", written, abs)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Errorf("absolute path not honoured: %v", err)
	}
}

func TestFileWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if written, err := (File{}).Write(context.Background(), filepath.Join(blocker, "child.md"), []byte("x")); err == nil || written != "" {
		t.Errorf("Write under a regular file: got = (%q, %v), wanted = (\"\", error)", written, err)
	}
}

func TestParseGCS(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		bucket  string
		object  string
		wantErr bool
	}{
		{name: "ok", in: "gs://traces/runs/a.md", bucket: "traces", object: "runs/a.md"},
		{name: "no object", in: "gs://traces", wantErr: true},
		{name: "empty object", in: "gs://traces/", wantErr: true},
		{name: "not gcs", in: "/tmp/a.md", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseGCS(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got = %v, wantErr = %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || object != tt.object {
				t.Errorf("got = (%q, %q), wanted = (%q, %q)", bucket, object, tt.bucket, tt.object)
			}
		})
	}
}

// recordingSink remembers what it was asked to write.
type recordingSink struct {
	names []string
}

func (r *recordingSink) Write(_ context.Context, name string, _ []byte) (string, error) {
	r.names = append(r.names, name)
	return name, nil
}

func TestAutoRoutesLocal(t *testing.T) {
	dir := t.TempDir()
	remote := &recordingSink{}
	a := &Auto{Dir: dir, Remote: remote}

	written, err := a.Write(context.Background(), "t.md", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := filepath.Join(dir, "t.md"); written != want {
		t.Errorf("written: got = %q, wanted = %q", written, want)
	}
	if _, err := os.Stat(written); err != nil {
		t.Errorf("local file: %v", err)
	}
	if len(remote.names) != 0 {
		t.Errorf("remote writes: got = %v, wanted none", remote.names)
	}
}

func TestAutoRoutesGCS(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		in   string
		want string
	}{
		{name: "explicit url", dir: t.TempDir(), in: "gs://bucket/a.md", want: "gs://bucket/a.md"},
		{name: "gcs dir", dir: "gs://bucket/dumps", in: "dspy_trace_1.md", want: "gs://bucket/dumps/dspy_trace_1.md"},
		{name: "gcs dir trailing slash", dir: "gs://bucket/dumps/", in: "nested/b.md", want: "gs://bucket/dumps/nested/b.md"},
		{name: "bucket only", dir: "gs://bucket", in: "c.md", want: "gs://bucket/c.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &recordingSink{}
			a := &Auto{Dir: tt.dir, Remote: remote}

			written, err := a.Write(context.Background(), tt.in, []byte("x"))
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if written != tt.want {
				t.Errorf("written: got = %q, wanted = %q", written, tt.want)
			}
			if len(remote.names) != 1 || remote.names[0] != tt.want {
				t.Errorf("remote writes: got = %v, wanted = [%s]", remote.names, tt.want)
			}
		})
	}

	if _, err := os.Stat("gs:"); err == nil {
		t.Error("found a local gs: directory, wanted every gs:// write to go remote")
	}
}

func TestGCSRejectsMalformedURL(t *testing.T) {
	if _, err := NewGCS(nil).Write(context.Background(), "gs://bucket", []byte("x")); err == nil {
		t.Error("Write malformed gs url: got = nil, wanted = error")
	}
}
