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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corvidlabs/docforge/pkg/safety"
)

var _ = Describe("Encoding recovery", func() {
	It("passes valid UTF-8 through unchanged", func() {
		d := safety.DecodeBytes([]byte("héllo wörld"), "")
		Expect(d.Text).To(Equal("héllo wörld"))
		Expect(d.Encoding).To(Equal("utf-8"))
	})

	It("strips a UTF-8 BOM", func() {
		d := safety.DecodeBytes(append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...), "")
		Expect(d.Text).To(Equal("hello"))
	})

	It("decodes UTF-16LE with a BOM", func() {
		b := []byte{0xFF, 0xFE, 'h', 0, 'i', 0}
		d := safety.DecodeBytes(b, "")
		Expect(d.Text).To(Equal("hi"))
		Expect(d.Encoding).To(Equal("utf-16le"))
	})

	It("falls back to windows-1252 for non-UTF-8 bytes with no hint", func() {
		// 0x93/0x94 are the Windows-1252 curly quotes, invalid as UTF-8 continuation bytes here.
		d := safety.DecodeBytes([]byte{0x93, 'h', 'i', 0x94}, "")
		Expect(d.Encoding).To(Equal("windows-1252"))
		Expect(d.Text).To(ContainSubstring("hi"))
	})

	It("returns an empty result for empty input", func() {
		d := safety.DecodeBytes(nil, "")
		Expect(d.Text).To(Equal(""))
	})
})
