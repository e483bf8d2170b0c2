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

package pdf

import "testing"

func TestFilterFormatMapping(t *testing.T) {
	cases := map[string]string{
		"DCTDecode":     "jpeg",
		"JPXDecode":     "jp2",
		"FlateDecode":   "png",
		"CCITTFaxDecode": "tiff",
		"JBIG2Decode":   "jbig2",
		"LZWDecode":     "png",
		"Unknown":       "raw",
		"":              "raw",
	}
	for in, want := range cases {
		if got := filterFormat(in); got != want {
			t.Errorf("filterFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeRejectsNonPDF(t *testing.T) {
	if _, err := Decode([]byte("not a pdf at all"), "doc.pdf"); err == nil {
		t.Fatal("expected an error decoding non-PDF bytes")
	}
}

func TestDecodeRejectsEmpty(t *testing.T) {
	if _, err := Decode(nil, "doc.pdf"); err == nil {
		t.Fatal("expected an error decoding empty input")
	}
}
