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

package rtf

import (
	"strings"
	"testing"
)

// TestPagesSplitOnPageControlWord covers spec.md S5.
func TestPagesSplitOnPageControlWord(t *testing.T) {
	src := []byte(`{\rtf1 A\par B\page C\par D}`)
	c, err := Decode(src, "doc.rtf")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %#v", len(c.Pages), c.Pages)
	}
	if !strings.Contains(c.Pages[0], "A") || !strings.Contains(c.Pages[0], "B") {
		t.Errorf("page 1 missing A/B: %q", c.Pages[0])
	}
	if !strings.Contains(c.Pages[1], "C") || !strings.Contains(c.Pages[1], "D") {
		t.Errorf("page 2 missing C/D: %q", c.Pages[1])
	}
	full := c.FullText()
	for _, want := range []string{"A", "B", "C", "D"} {
		if !strings.Contains(full, want) {
			t.Errorf("full text missing %q: %q", want, full)
		}
	}
}

func TestMissingHeaderFails(t *testing.T) {
	_, err := Decode([]byte("not rtf at all"), "doc.rtf")
	if err == nil {
		t.Fatal("expected error for missing {\\rtf header")
	}
}

func TestSpecialCharacters(t *testing.T) {
	src := []byte(`{\rtf1 Caf\'e9 \lquote quoted\rquote }`)
	c, err := Decode(src, "doc.rtf")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !strings.Contains(c.FullText(), "Caf") {
		t.Errorf("expected literal text preserved: %q", c.FullText())
	}
}
