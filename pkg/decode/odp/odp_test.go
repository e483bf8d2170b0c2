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

package odp_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/corvidlabs/docforge/pkg/decode/odp"
)

func buildODP(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
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

const odpContentXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:presentation="urn:oasis:names:tc:opendocument:xmlns:presentation:1.0" xmlns:svg="urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0">
  <office:body>
    <office:presentation>
      <draw:page>
        <draw:frame draw:x="1cm" draw:y="1cm">
          <draw:text-box><text:p text:style-name="TitleStyle">Slide One</text:p></draw:text-box>
        </draw:frame>
        <draw:frame draw:x="1cm" draw:y="3cm">
          <draw:text-box><text:p>Body text here</text:p></draw:text-box>
        </draw:frame>
        <presentation:notes>
          <draw:frame><draw:text-box><text:p>speaker notes</text:p></draw:text-box></draw:frame>
        </presentation:notes>
      </draw:page>
    </office:presentation>
  </office:body>
</office:document-content>`

func TestDecodeSlideTitleAndBody(t *testing.T) {
	data := buildODP(t, map[string]string{"content.xml": odpContentXML})

	c, err := odp.Decode(data, "deck.odp")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(c.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(c.Slides))
	}
	sl := c.Slides[0]
	if sl.Title != "Slide One" {
		t.Errorf("expected title %q, got %q", "Slide One", sl.Title)
	}
	if !strings.Contains(sl.Body, "Body text here") {
		t.Errorf("expected body to contain %q, got %q", "Body text here", sl.Body)
	}

	full := c.FullText()
	if !strings.Contains(full, "Slide One") {
		t.Errorf("FullText missing slide title: %q", full)
	}
}

func TestDecodeMissingContentXML(t *testing.T) {
	data := buildODP(t, map[string]string{"meta.xml": `<office:document-meta/>`})
	if _, err := odp.Decode(data, "deck.odp"); err == nil {
		t.Fatal("expected an error when content.xml is absent")
	}
}
