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

// Package ppt reads a legacy binary PowerPoint deck (spec.md §4.10) from
// its "PowerPoint Document" stream in three descending passes: the
// SlideListWithText container's SlidePersistAtom-delimited outline text,
// then a direct walk of the stream's Slide/Notes containers for decks
// whose outline text is missing or incomplete, and only as a last resort
// a flattened scan of every TextCharsAtom/TextBytesAtom with no slide
// boundaries at all.
package ppt

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/corvidlabs/docforge/pkg/model"
	"github.com/corvidlabs/docforge/pkg/safety"
	"github.com/corvidlabs/docforge/pkg/xerrors"
)

// Metadata is the PPT-specific metadata surface.
type Metadata struct {
	model.OfficeMetadata
	SlideCount int `json:"slide_count"`
}

// Slide is one recovered slide's text, categorized by the record type
// that carried it (title vs body vs notes vs other placeholder text).
type Slide struct {
	Number int
	Title  string
	Text   string
	Notes  string
}

// Content is a decoded legacy PPT deck.
type Content struct {
	Metadata Metadata
	Slides   []Slide
	Images   []model.Image
}

func (c *Content) IterateUnits() []model.Unit {
	units := make([]model.Unit, len(c.Slides))
	for i, s := range c.Slides {
		text := s.Text
		if s.Notes != "" {
			text += "\n" + s.Notes
		}
		img := c.Images
		if i > 0 {
			img = nil // document-global images attach to the first slide's unit
		}
		units[i] = model.Unit{Number: s.Number, Text: text, Images: img}
	}
	return units
}
func (c *Content) IterateImages() []model.Image { return c.Images }
func (c *Content) FullText() string              { return model.JoinUnitText(c.IterateUnits()) }
func (c *Content) TypeTag() model.TypeTag        { return model.TagPpt }

// Decode parses legacy PPT bytes per spec.md §4.10.
func Decode(data []byte, path string) (*Content, error) {
	ole, err := safety.OpenOLE2(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if safety.PPTEncrypted(ole) {
		return nil, xerrors.Encrypted("ppt")
	}

	pptData, ok := ole.Stream("PowerPoint Document")
	if !ok {
		return nil, xerrors.LegacyParse("missing PowerPoint Document stream")
	}

	slides := recoverSlides(pptData)

	meta := Metadata{}
	meta.PopulateFromPath(path)
	meta.SlideCount = len(slides)

	var images []model.Image
	if pics, ok := ole.Stream("Pictures"); ok {
		images = extractImages(pics)
	}

	return &Content{Metadata: meta, Slides: slides, Images: images}, nil
}

// Legacy PPT record types this package reads, per [MS-PPT] 2.13.24.
const (
	recSlide             = 0x03EE
	recNotes             = 0x03F0
	recSlidePersistAtom  = 0x03F3
	recSlideListWithText = 0x0FF0
	recTextHeaderAtom    = 0x0FA1
	recTextCharsAtom     = 0x0FA0
	recTextBytesAtom     = 0x0FA8
)

// recoverSlides tries each slide-boundary recovery pass in turn, falling
// further back only when the previous pass recovered nothing at all.
func recoverSlides(data []byte) []Slide {
	if slides := slidesFromOutline(data); len(slides) > 0 {
		return slides
	}
	if slides := slidesFromContainers(data); len(slides) > 0 {
		return slides
	}
	text := strings.TrimSpace(extractText(data))
	return []Slide{{Number: 1, Text: text}}
}

// slidesFromOutline is pass 1: it reads every SlideListWithText
// container's SlidePersistAtom-delimited runs, which is where
// PowerPoint caches the outline-view text for each slide, categorized
// by the TextHeaderAtom preceding each text atom (0/4 = title, 2 =
// notes, everything else = body/other).
func slidesFromOutline(data []byte) []Slide {
	var slides []Slide
	forEachContainer(data, recSlideListWithText, func(body []byte) {
		slides = append(slides, parseSlideListWithText(body)...)
	})
	return slides
}

func parseSlideListWithText(body []byte) []Slide {
	var slides []Slide
	var cur *Slide
	pendingHeader := -1
	pos := 0
	for pos+8 <= len(body) {
		recVerInstance := binary.LittleEndian.Uint16(body[pos : pos+2])
		recType := binary.LittleEndian.Uint16(body[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(body[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		length := clampLen(int(recLen), len(body)-pos)
		payload := body[pos : pos+length]

		switch recType {
		case recSlidePersistAtom:
			if cur != nil {
				slides = append(slides, *cur)
			}
			cur = &Slide{Number: len(slides) + 1}
			pendingHeader = -1
		case recTextHeaderAtom:
			if len(payload) >= 4 {
				pendingHeader = int(binary.LittleEndian.Uint32(payload[0:4]))
			}
		case recTextCharsAtom:
			appendSlideText(cur, pendingHeader, decodeUTF16Text(payload))
		case recTextBytesAtom:
			appendSlideText(cur, pendingHeader, decodeANSIText(payload))
		}

		if recVer != 0x0F {
			pos += length
		}
	}
	if cur != nil {
		slides = append(slides, *cur)
	}
	return slides
}

// slidesFromContainers is pass 2: a direct walk of every Slide/Notes
// container in the stream, used when the outline text from pass 1 is
// missing or empty (decks saved without outline caching, or where only
// object placeholders carry text). Slides and notes are zipped
// positionally since resolving the real persist-ID link between a Notes
// container and its owning slide needs the UserEditAtom/
// PersistDirectoryAtom chain this package doesn't otherwise read.
func slidesFromContainers(data []byte) []Slide {
	var slides []Slide
	var notes []string
	pos := 0
	n := len(data)
	for pos+8 <= n {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		length := clampLen(int(recLen), n-pos)

		switch recType {
		case recSlide:
			slides = append(slides, parseSlideContainer(data[pos:pos+length], len(slides)+1))
		case recNotes:
			notes = append(notes, parseNotesContainer(data[pos:pos+length]))
		}

		if recVer != 0x0F {
			pos += length
		}
	}
	for i := range slides {
		if i < len(notes) {
			slides[i].Notes = notes[i]
		}
	}
	return slides
}

func parseSlideContainer(body []byte, number int) Slide {
	s := Slide{Number: number}
	pendingHeader := -1
	pos := 0
	for pos+8 <= len(body) {
		recVerInstance := binary.LittleEndian.Uint16(body[pos : pos+2])
		recType := binary.LittleEndian.Uint16(body[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(body[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		length := clampLen(int(recLen), len(body)-pos)
		payload := body[pos : pos+length]

		switch recType {
		case recTextHeaderAtom:
			if len(payload) >= 4 {
				pendingHeader = int(binary.LittleEndian.Uint32(payload[0:4]))
			}
		case recTextCharsAtom:
			appendSlideText(&s, pendingHeader, decodeUTF16Text(payload))
		case recTextBytesAtom:
			appendSlideText(&s, pendingHeader, decodeANSIText(payload))
		}

		if recVer != 0x0F {
			pos += length
		}
	}
	return s
}

func parseNotesContainer(body []byte) string {
	var sb strings.Builder
	pos := 0
	for pos+8 <= len(body) {
		recVerInstance := binary.LittleEndian.Uint16(body[pos : pos+2])
		recType := binary.LittleEndian.Uint16(body[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(body[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		length := clampLen(int(recLen), len(body)-pos)
		payload := body[pos : pos+length]

		switch recType {
		case recTextCharsAtom:
			appendIfNotNoise(&sb, strings.TrimSpace(decodeUTF16Text(payload)))
		case recTextBytesAtom:
			appendIfNotNoise(&sb, strings.TrimSpace(decodeANSIText(payload)))
		}

		if recVer != 0x0F {
			pos += length
		}
	}
	return sb.String()
}

// forEachContainer does a flat, non-skipping scan of data — the same
// technique extractText uses — and invokes fn with the byte range of
// every container whose recType matches want, wherever it is nested.
func forEachContainer(data []byte, want uint16, fn func(body []byte)) {
	pos := 0
	n := len(data)
	for pos+8 <= n {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8
		length := clampLen(int(recLen), n-pos)
		if recType == want {
			fn(data[pos : pos+length])
		}
		if recVer != 0x0F {
			pos += length
		}
	}
}

func clampLen(want, max int) int {
	if want > max {
		return max
	}
	if want < 0 {
		return 0
	}
	return want
}

// appendSlideText files a recovered text run under the right slide field
// by its TextHeaderAtom texttype: 0/4 title (incl. centered), 2 notes,
// everything else (1 body, 3 other, 5-7 body variants, or unknown) body.
func appendSlideText(s *Slide, textType int, text string) {
	text = strings.TrimSpace(text)
	if s == nil || text == "" || isNoise(text) {
		return
	}
	switch textType {
	case 0, 4:
		appendLine(&s.Title, text)
	case 2:
		appendLine(&s.Notes, text)
	default:
		appendLine(&s.Text, text)
	}
}

func appendLine(dst *string, text string) {
	if *dst != "" {
		*dst += "\n"
	}
	*dst += text
}

func decodeUTF16Text(payload []byte) string {
	count := len(payload) / 2
	if count == 0 {
		return ""
	}
	u16s := make([]uint16, count)
	for i := 0; i < count; i++ {
		u16s[i] = binary.LittleEndian.Uint16(payload[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16s))
}

func decodeANSIText(payload []byte) string { return string(payload) }

var noisePatterns = []string{
	"Click to edit Master title style",
	"Click to edit Master text styles",
	"Click to edit Master subtitle style",
}

var noiseExact = map[string]bool{
	"*": true, "Second level": true, "Third level": true,
	"Fourth level": true, "Fifth level": true,
}

func isNoise(text string) bool {
	if noiseExact[text] {
		return true
	}
	for _, p := range noisePatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// extractText is the pass-3 fallback: a flat walk of the whole
// PowerPoint Document record stream with no slide boundaries at all.
// Record headers are 8 bytes: recVerInstance(2) recType(2) recLen(4). A
// record whose version nibble is 0xF is a container and its children
// follow immediately, so the scan doesn't skip recLen for those.
func extractText(data []byte) string {
	var sb strings.Builder
	pos := 0
	for pos+8 <= len(data) {
		recVerInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		recVer := recVerInstance & 0x0F
		pos += 8

		if recLen > uint32(len(data)-pos) {
			break
		}

		switch recType {
		case recTextCharsAtom:
			if recLen >= 2 {
				appendIfNotNoise(&sb, strings.TrimSpace(decodeUTF16Text(data[pos:pos+int(recLen)])))
			}
			pos += int(recLen)
		case recTextBytesAtom:
			if recLen > 0 {
				appendIfNotNoise(&sb, strings.TrimSpace(decodeANSIText(data[pos:pos+int(recLen)])))
			}
			pos += int(recLen)
		default:
			if recVer != 0x0F {
				pos += int(recLen)
			}
			// container: don't skip, sub-records parse on the next iteration
		}
	}
	return sb.String()
}

func appendIfNotNoise(sb *strings.Builder, text string) {
	if text == "" || isNoise(text) {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(text)
}

const minImageSize = 1024

// extractImages walks the Pictures stream's BLIP records (EMF/WMF/JPEG/PNG)
// per the PPT binary format's documented header-size variants for single-
// vs dual-UID BLIPs.
func extractImages(pictures []byte) []model.Image {
	var images []model.Image
	pos := 0
	idx := 1
	for pos+8 <= len(pictures) {
		recVerInstance := binary.LittleEndian.Uint16(pictures[pos : pos+2])
		recType := binary.LittleEndian.Uint16(pictures[pos+2 : pos+4])
		recLen := binary.LittleEndian.Uint32(pictures[pos+4 : pos+8])
		recInstance := recVerInstance >> 4

		if int(recLen) > len(pictures)-(pos+8) {
			break
		}
		dataStart := pos + 8
		pos += 8 + int(recLen)

		var headerSize int
		var contentType string
		switch recType {
		case 0xF01A, 0xF01B:
			if recInstance&0x10 != 0 {
				headerSize = 66
			} else {
				headerSize = 50
			}
			if recType == 0xF01A {
				contentType = "image/x-emf"
			} else {
				contentType = "image/x-wmf"
			}
		case 0xF01D, 0xF01E:
			if recInstance&0x10 != 0 {
				headerSize = 33
			} else {
				headerSize = 17
			}
			if recType == 0xF01D {
				contentType = "image/jpeg"
			} else {
				contentType = "image/png"
			}
		default:
			continue
		}

		if int(recLen) < headerSize {
			continue
		}
		raw := append([]byte(nil), pictures[dataStart+headerSize:dataStart+int(recLen)]...)
		if len(raw) < minImageSize {
			continue
		}
		img := model.Image{ImageIndex: idx, Data: raw, Size: len(raw), ContentType: contentType}
		if w, h, ok := safety.ImageDimensions(raw); ok {
			img.Width, img.Height = &w, &h
		}
		images = append(images, img)
		idx++
	}
	return images
}
