/*
 *  MIT License
 *
 *  Copyright (c) 2026 docforge contributors
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package archivewalk_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/corvidlabs/docforge/pkg/archivewalk"
	"github.com/corvidlabs/docforge/pkg/decode/plain"
	"github.com/corvidlabs/docforge/pkg/model"
)

// echoDispatch decodes every member as plain text, recording the
// pseudo-paths it was called with.
func echoDispatch(calls *[]string) archivewalk.Dispatcher {
	return func(pseudoPath string, data []byte) ([]model.ContentObject, error) {
		*calls = append(*calls, pseudoPath)
		c, err := plain.Decode(data, pseudoPath)
		if err != nil {
			return nil, err
		}
		return []model.ContentObject{c}, nil
	}
}

func buildZip(t *testing.T, entries map[string]string, dirs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, d := range dirs {
		if _, err := w.Create(d); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWalkZipDispatchesFilesSkipsHiddenAndDirs(t *testing.T) {
	data := buildZip(t, map[string]string{
		"a.txt":         "hello",
		"b.txt":         "world",
		".hidden.txt":   "secret",
		"__MACOSX/x.txt": "mac",
	}, []string{"dir/"})

	var calls []string
	objs, err := archivewalk.Walk(data, "bundle.zip", archivewalk.DefaultLimits(), echoDispatch(&calls))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 dispatched content objects, got %d: %#v", len(objs), calls)
	}
	for _, c := range calls {
		if c == "bundle.zip!/.hidden.txt" || c == "bundle.zip!/__MACOSX/x.txt" {
			t.Errorf("hidden entry %q should not have been dispatched", c)
		}
	}
}

func TestWalkZipSkipsNestedArchiveEntries(t *testing.T) {
	data := buildZip(t, map[string]string{
		"readme.txt": "hi",
		"inner.zip":  "pkzip-bytes-placeholder",
	}, nil)

	var calls []string
	objs, err := archivewalk.Walk(data, "bundle.zip", archivewalk.DefaultLimits(), echoDispatch(&calls))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected exactly 1 dispatched entry (nested zip skipped), got %d: %#v", len(objs), calls)
	}
}

func buildTar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0600, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWalkTarDispatchesFiles(t *testing.T) {
	data := buildTar(t, map[string]string{"one.txt": "1", "two.txt": "2"})

	var calls []string
	objs, err := archivewalk.Walk(data, "bundle.tar", archivewalk.DefaultLimits(), echoDispatch(&calls))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 dispatched entries, got %d", len(objs))
	}
}

func TestWalkGzipWrappedTar(t *testing.T) {
	tarData := buildTar(t, map[string]string{"only.txt": "content"})
	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	if _, err := gw.Write(tarData); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	var calls []string
	objs, err := archivewalk.Walk(gzBuf.Bytes(), "bundle.tar.gz", archivewalk.DefaultLimits(), echoDispatch(&calls))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected 1 dispatched entry, got %d", len(objs))
	}
	if calls[0] != "bundle.tar!/only.txt" {
		t.Errorf("expected pseudo-path to strip the .gz suffix before recursing, got %q", calls[0])
	}
}

func TestWalkRejectsUnrecognizedSignature(t *testing.T) {
	var calls []string
	_, err := archivewalk.Walk([]byte("not an archive at all, just text"), "mystery.bin", archivewalk.DefaultLimits(), echoDispatch(&calls))
	if err == nil {
		t.Fatal("expected an error for an unrecognized archive signature")
	}
}
