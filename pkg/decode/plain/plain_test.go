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

package plain_test

import (
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/plain"
)

func TestDecodePassesUTF8Through(t *testing.T) {
	c, err := plain.Decode([]byte("hello, world"), "notes.txt")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.FullText() != "hello, world" {
		t.Errorf("expected full text %q, got %q", "hello, world", c.FullText())
	}
	if c.Metadata.DetectedEncoding != "utf-8" {
		t.Errorf("expected utf-8 detected encoding, got %q", c.Metadata.DetectedEncoding)
	}
	if c.TypeTag() != "PlainContent" {
		t.Errorf("unexpected type tag %q", c.TypeTag())
	}
}

func TestDecodeSingleUnit(t *testing.T) {
	c, err := plain.Decode([]byte("a\nb\nc"), "notes.csv")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	units := c.IterateUnits()
	if len(units) != 1 {
		t.Fatalf("expected exactly 1 unit, got %d", len(units))
	}
	if units[0].Number != 1 {
		t.Errorf("expected unit number 1, got %d", units[0].Number)
	}
	if c.IterateImages() != nil {
		t.Errorf("expected no images from a plain text file")
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	c, err := plain.Decode(data, "notes.txt")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.FullText() != "hello" {
		t.Errorf("expected BOM stripped, got %q", c.FullText())
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	c, err := plain.Decode(nil, "empty.txt")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.FullText() != "" {
		t.Errorf("expected empty text, got %q", c.FullText())
	}
}
