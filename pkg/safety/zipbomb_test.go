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

package safety_test

import (
	"archive/zip"
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corvidlabs/docforge/pkg/safety"
)

func buildZip(entries map[string]string) *zip.Reader {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, _ := w.Create(name)
		_, _ = f.Write([]byte(content))
	}
	_ = w.Close()
	r, _ := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	return r
}

var _ = Describe("Zip bomb limits", func() {
	It("passes a normal small archive", func() {
		r := buildZip(map[string]string{"a.txt": "hello", "b.txt": "world"})
		err := safety.CheckZipBomb(r, safety.DefaultZipBombLimits())
		Expect(err).ToNot(HaveOccurred())
	})

	It("rejects an archive with too many entries", func() {
		entries := make(map[string]string, 10)
		for i := 0; i < 10; i++ {
			entries[strings.Repeat("f", i+1)+".txt"] = "x"
		}
		r := buildZip(entries)
		limits := safety.DefaultZipBombLimits()
		limits.MaxEntries = 5
		err := safety.CheckZipBomb(r, limits)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a single entry over the uncompressed size ceiling", func() {
		r := buildZip(map[string]string{"big.txt": strings.Repeat("a", 1<<16)})
		limits := safety.DefaultZipBombLimits()
		limits.MaxSingleUncompressedBytes = 1 << 10
		err := safety.CheckZipBomb(r, limits)
		Expect(err).To(HaveOccurred())
	})

	It("tolerates directory entries with zero size", func() {
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		_, _ = w.Create("a/dir/")
		f, _ := w.Create("a/dir/file.txt")
		_, _ = f.Write([]byte("content"))
		_ = w.Close()
		r, _ := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))

		err := safety.CheckZipBomb(r, safety.DefaultZipBombLimits())
		Expect(err).ToNot(HaveOccurred())
	})
})
