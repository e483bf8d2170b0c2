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

package ppt

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/corvidlabs/docforge/pkg/model"
)

// recHeader builds the 8-byte [MS-PPT] record header: recVerInstance(2),
// recType(2), recLen(4), all little-endian.
func recHeader(verInstance, recType uint16, bodyLen int) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], verInstance)
	binary.LittleEndian.PutUint16(buf[2:4], recType)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(bodyLen))
	return buf
}

// atomRecord builds a non-container record (recVer nibble 0, so the
// caller's scan skips over it by recLen).
func atomRecord(recType uint16, payload []byte) []byte {
	return append(recHeader(0x0000, recType, len(payload)), payload...)
}

// containerHeader builds just the header of a container record (recVer
// nibble 0xF, so the scan doesn't skip its body — children follow
// immediately as the next records).
func containerHeader(recType uint16, bodyLen int) []byte {
	return recHeader(0x000F, recType, bodyLen)
}

func le32(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func utf16leBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], u)
	}
	return buf
}

func textHeaderAtom(textType int32) []byte {
	return atomRecord(recTextHeaderAtom, le32(textType))
}

func textCharsAtom(s string) []byte {
	return atomRecord(recTextCharsAtom, utf16leBytes(s))
}

func textBytesAtom(s string) []byte {
	return atomRecord(recTextBytesAtom, []byte(s))
}

func TestParseSlideListWithTextRecoversTitleBodyAndNotes(t *testing.T) {
	var slide1 bytes.Buffer
	slide1.Write(atomRecord(recSlidePersistAtom, le32(1)))
	slide1.Write(textHeaderAtom(0)) // title
	slide1.Write(textCharsAtom("Slide One Title"))
	slide1.Write(textHeaderAtom(1)) // body
	slide1.Write(textCharsAtom("First bullet"))

	var slide2 bytes.Buffer
	slide2.Write(atomRecord(recSlidePersistAtom, le32(2)))
	slide2.Write(textHeaderAtom(4)) // title (centered variant)
	slide2.Write(textBytesAtom("Slide Two Title"))
	slide2.Write(textHeaderAtom(2)) // notes
	slide2.Write(textCharsAtom("Spoken notes for slide two"))

	body := append(slide1.Bytes(), slide2.Bytes()...)
	slides := parseSlideListWithText(body)

	if len(slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(slides))
	}
	if slides[0].Title != "Slide One Title" || slides[0].Text != "First bullet" {
		t.Errorf("slide 1 = %#v", slides[0])
	}
	if slides[1].Title != "Slide Two Title" || slides[1].Notes != "Spoken notes for slide two" {
		t.Errorf("slide 2 = %#v", slides[1])
	}
}

func TestSlidesFromOutlineViaContainerScan(t *testing.T) {
	var outlineBody bytes.Buffer
	outlineBody.Write(atomRecord(recSlidePersistAtom, le32(1)))
	outlineBody.Write(textHeaderAtom(0))
	outlineBody.Write(textCharsAtom("Only Slide"))

	var data bytes.Buffer
	data.Write(containerHeader(recSlideListWithText, outlineBody.Len()))
	data.Write(outlineBody.Bytes())

	slides := slidesFromOutline(data.Bytes())
	if len(slides) != 1 {
		t.Fatalf("expected 1 slide recovered from the container scan, got %d", len(slides))
	}
	if slides[0].Title != "Only Slide" {
		t.Errorf("unexpected title: %q", slides[0].Title)
	}
}

func TestSlidesFromContainersZipsNotesPositionally(t *testing.T) {
	var slideBody bytes.Buffer
	slideBody.Write(textHeaderAtom(0))
	slideBody.Write(textCharsAtom("Container Slide Title"))
	slideBody.Write(textHeaderAtom(1))
	slideBody.Write(textCharsAtom("Container body text"))

	var notesBody bytes.Buffer
	notesBody.Write(textCharsAtom("Spoken notes"))

	var data bytes.Buffer
	data.Write(containerHeader(recSlide, slideBody.Len()))
	data.Write(slideBody.Bytes())
	data.Write(containerHeader(recNotes, notesBody.Len()))
	data.Write(notesBody.Bytes())

	slides := slidesFromContainers(data.Bytes())
	if len(slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(slides))
	}
	if slides[0].Title != "Container Slide Title" {
		t.Errorf("Title = %q", slides[0].Title)
	}
	if slides[0].Text != "Container body text" {
		t.Errorf("Text = %q", slides[0].Text)
	}
	if slides[0].Notes != "Spoken notes" {
		t.Errorf("Notes = %q", slides[0].Notes)
	}
}

func TestExtractTextFlattenedFallbackFiltersNoise(t *testing.T) {
	var data bytes.Buffer
	data.Write(textCharsAtom("Fallback text one"))
	data.Write(textCharsAtom("Click to edit Master title style"))
	data.Write(textBytesAtom("Fallback text two"))

	got := extractText(data.Bytes())
	want := "Fallback text one\nFallback text two"
	if got != want {
		t.Errorf("extractText = %q, want %q", got, want)
	}
}

func TestRecoverSlidesPrefersOutlinePass(t *testing.T) {
	var outlineBody bytes.Buffer
	outlineBody.Write(atomRecord(recSlidePersistAtom, le32(1)))
	outlineBody.Write(textHeaderAtom(0))
	outlineBody.Write(textCharsAtom("Outline Wins"))

	var data bytes.Buffer
	data.Write(containerHeader(recSlideListWithText, outlineBody.Len()))
	data.Write(outlineBody.Bytes())

	slides := recoverSlides(data.Bytes())
	if len(slides) != 1 || slides[0].Title != "Outline Wins" {
		t.Fatalf("expected the outline pass's slide, got %#v", slides)
	}
}

func TestRecoverSlidesFallsBackToFlattenedScan(t *testing.T) {
	var data bytes.Buffer
	data.Write(textCharsAtom("Only flat text available"))

	slides := recoverSlides(data.Bytes())
	if len(slides) != 1 {
		t.Fatalf("expected a single synthetic slide, got %d", len(slides))
	}
	if slides[0].Text != "Only flat text available" {
		t.Errorf("Text = %q", slides[0].Text)
	}
}

func TestExtractImagesReadsPNGBlip(t *testing.T) {
	imageData := bytes.Repeat([]byte{0xAB}, minImageSize+6)
	headerSize := 17
	payload := make([]byte, headerSize+len(imageData))
	copy(payload[headerSize:], imageData)

	var pictures bytes.Buffer
	pictures.Write(recHeader(0x0000, 0xF01E, len(payload)))
	pictures.Write(payload)

	images := extractImages(pictures.Bytes())
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	img := images[0]
	if img.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", img.ContentType)
	}
	if !bytes.Equal(img.Data, imageData) {
		t.Errorf("Data mismatch: got %d bytes, want %d bytes", len(img.Data), len(imageData))
	}
}

func TestExtractImagesDropsRecordsSmallerThanMinSize(t *testing.T) {
	tiny := bytes.Repeat([]byte{0xCD}, 10)
	headerSize := 17
	payload := make([]byte, headerSize+len(tiny))
	copy(payload[headerSize:], tiny)

	var pictures bytes.Buffer
	pictures.Write(recHeader(0x0000, 0xF01E, len(payload)))
	pictures.Write(payload)

	images := extractImages(pictures.Bytes())
	if len(images) != 0 {
		t.Errorf("expected tiny BLIP to be dropped, got %d images", len(images))
	}
}

func TestIsNoiseFiltersPlaceholderText(t *testing.T) {
	if !isNoise("*") {
		t.Error("expected bare \"*\" to be noise")
	}
	if !isNoise("Click to edit Master subtitle style") {
		t.Error("expected master-style placeholder text to be noise")
	}
	if isNoise("Actual slide content") {
		t.Error("did not expect real content to be flagged as noise")
	}
}

func TestDecodeUTF16AndANSIText(t *testing.T) {
	if got := decodeUTF16Text(utf16leBytes("hello")); got != "hello" {
		t.Errorf("decodeUTF16Text = %q", got)
	}
	if got := decodeANSIText([]byte("hello")); got != "hello" {
		t.Errorf("decodeANSIText = %q", got)
	}
}

func TestContentIterateUnitsAttachesImagesToFirstSlideOnly(t *testing.T) {
	c := &Content{
		Slides: []Slide{
			{Number: 1, Text: "one"},
			{Number: 2, Text: "two"},
		},
		Images: []model.Image{{ImageIndex: 1}},
	}
	units := c.IterateUnits()
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if len(units[0].Images) != 1 {
		t.Errorf("expected the first unit to carry the deck's images, got %d", len(units[0].Images))
	}
	if len(units[1].Images) != 0 {
		t.Errorf("expected the second unit to carry no images, got %d", len(units[1].Images))
	}
}

func TestAppendSlideTextRoutesByTextType(t *testing.T) {
	var s Slide
	appendSlideText(&s, 0, "Title text")
	appendSlideText(&s, 2, "Notes text")
	appendSlideText(&s, 99, "Other body text")

	if s.Title != "Title text" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Notes != "Notes text" {
		t.Errorf("Notes = %q", s.Notes)
	}
	if !strings.Contains(s.Text, "Other body text") {
		t.Errorf("Text = %q", s.Text)
	}
}
