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

// Package sevenzip is a minimal 7z reader supporting the coder subset
// spec.md §4.17 names as "used in practice": Copy, LZMA, LZMA2, and BCJ
// (pass-through, per spec.md — the x86 call/jump filter is not
// reversed). AES-encrypted archives are detected by coder ID and
// rejected rather than decrypted. It parses the archive signature, the
// (optionally compressed) end header, pack/unpack/substream metadata,
// and the file list with Windows attributes, and enforces path safety
// on every entry name.
package sevenzip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"path"
	"strings"

	"github.com/ulikunitz/xz/lzma"
)

var signature = [6]byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}

// property IDs from the 7z header format.
const (
	idEnd              = 0x00
	idHeader           = 0x01
	idArchiveProps     = 0x02
	idAdditionalStream = 0x03
	idMainStreamsInfo  = 0x04
	idFilesInfo        = 0x05
	idPackInfo         = 0x06
	idUnpackInfo       = 0x07
	idSubStreamsInfo   = 0x08
	idSize             = 0x09
	idCRC              = 0x0A
	idFolder           = 0x0B
	idCodersUnpackSize = 0x0C
	idNumUnpackStream  = 0x0D
	idEmptyStream      = 0x0E
	idEmptyFile        = 0x0F
	idAnti             = 0x10
	idName             = 0x11
	idCTime            = 0x12
	idATime            = 0x13
	idMTime            = 0x14
	idWinAttributes    = 0x15
	idEncodedHeader    = 0x17
	idStartPos         = 0x18
	idDummy            = 0x19
)

var idAES256SHA256 = []byte{0x06, 0xF1, 0x07, 0x01}

// Entry is one file record in the archive.
type Entry struct {
	Name  string
	IsDir bool

	folder   *folder
	offset   int64 // offset of this substream within the folder's decoded output
	size     int64
	unpacked []byte // cached decoded folder output, set lazily by Reader.Open
}

// Reader is an opened 7z archive.
type Reader struct {
	data          []byte
	entries       []Entry
	needsPassword bool
}

// NeedsPassword reports whether any folder in the archive uses an AES
// coder — 7z's encryption marker, per spec.md §4.16.
func (r *Reader) NeedsPassword() bool { return r.needsPassword }

// Entries returns every file (non-directory) entry in the archive, in
// archive order.
func (r *Reader) Entries() []Entry {
	var out []Entry
	for _, e := range r.entries {
		if !e.IsDir {
			out = append(out, e)
		}
	}
	return out
}

// Open decompresses and returns one entry's bytes.
func (r *Reader) Open(e Entry) ([]byte, error) {
	if e.folder == nil {
		return nil, nil
	}
	full, err := e.folder.decode(r.data)
	if err != nil {
		return nil, err
	}
	end := e.offset + e.size
	if end > int64(len(full)) {
		return nil, fmt.Errorf("sevenzip: substream out of range")
	}
	return full[e.offset:end], nil
}

type coder struct {
	id         []byte
	numIn      int
	numOut     int
	props      []byte
	packOffset int64 // start offset within the archive's pack stream area, set by caller
	packSize   int64
}

type folder struct {
	coders      []coder
	packOffsets []int64
	packSizes   []int64
	unpackSize  int64
	crc         uint32
	hasCRC      bool
}

// decode runs the folder's coder chain. Only a single-coder folder
// (Copy/LZMA/LZMA2) is supported — the subset spec.md §4.17 names as
// "used in practice"; multi-coder pipelines (e.g. delta+LZMA) fall back
// to an error surfaced as a per-entry extraction failure by the caller.
func (f *folder) decode(archive []byte) ([]byte, error) {
	if len(f.coders) != 1 {
		return nil, fmt.Errorf("sevenzip: unsupported multi-coder folder")
	}
	c := f.coders[0]
	if len(f.packOffsets) == 0 {
		return nil, fmt.Errorf("sevenzip: folder has no pack stream")
	}
	start := f.packOffsets[0]
	end := start + f.packSizes[0]
	if end > int64(len(archive)) {
		return nil, fmt.Errorf("sevenzip: pack stream out of range")
	}
	packed := archive[start:end]

	switch {
	case bytes.Equal(c.id, []byte{0x00}): // Copy
		return packed, nil
	case bytes.Equal(c.id, []byte{0x21}): // LZMA2
		r, err := lzma.NewReader2(bytes.NewReader(packed))
		if err != nil {
			return nil, fmt.Errorf("sevenzip: lzma2 init: %w", err)
		}
		return io.ReadAll(io.LimitReader(r, f.unpackSize))
	case bytes.Equal(c.id, []byte{0x03, 0x01, 0x01}): // LZMA
		hdr := buildLZMAHeader(c.props, f.unpackSize)
		r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr), bytes.NewReader(packed)))
		if err != nil {
			return nil, fmt.Errorf("sevenzip: lzma init: %w", err)
		}
		return io.ReadAll(io.LimitReader(r, f.unpackSize))
	case bytes.Equal(c.id, []byte{0x03, 0x03, 0x01, 0x03}), bytes.Equal(c.id, []byte{0x04}): // BCJ (x86 filter), pass-through
		return packed, nil
	default:
		return nil, fmt.Errorf("sevenzip: unsupported coder %x", c.id)
	}
}

// buildLZMAHeader reconstructs the classic 13-byte .lzma stream header
// (1 properties byte + 4-byte little-endian dictionary size + 8-byte
// little-endian uncompressed size) that ulikunitz/xz/lzma.NewReader
// expects, from 7z's bare 5-byte coder properties (properties byte +
// 4-byte dict size) and the folder's already-known unpacked size.
func buildLZMAHeader(props []byte, unpackSize int64) []byte {
	hdr := make([]byte, 13)
	if len(props) >= 5 {
		copy(hdr[0:5], props[0:5])
	}
	binary.LittleEndian.PutUint64(hdr[5:13], uint64(unpackSize))
	return hdr
}

// Open parses data as a 7z archive per spec.md §4.17.
func Open(data []byte) (*Reader, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("sevenzip: truncated signature header")
	}
	if !bytes.Equal(data[0:6], signature[:]) {
		return nil, fmt.Errorf("sevenzip: bad magic")
	}
	major, minor := data[6], data[7]
	if major != 0 || minor > 4 {
		return nil, fmt.Errorf("sevenzip: unsupported version %d.%d", major, minor)
	}

	startHeaderCRC := binary.LittleEndian.Uint32(data[8:12])
	if crc32.ChecksumIEEE(data[12:32]) != startHeaderCRC {
		return nil, fmt.Errorf("sevenzip: start header CRC mismatch")
	}

	nextHeaderOffset := int64(binary.LittleEndian.Uint64(data[12:20]))
	nextHeaderSize := int64(binary.LittleEndian.Uint64(data[20:28]))
	nextHeaderCRC := binary.LittleEndian.Uint32(data[28:32])

	base := int64(32)
	if nextHeaderSize == 0 {
		return &Reader{data: data}, nil
	}
	if base+nextHeaderOffset+nextHeaderSize > int64(len(data)) {
		return nil, fmt.Errorf("sevenzip: truncated end header")
	}
	headerBytes := data[base+nextHeaderOffset : base+nextHeaderOffset+nextHeaderSize]
	if crc32.ChecksumIEEE(headerBytes) != nextHeaderCRC {
		return nil, fmt.Errorf("sevenzip: end header CRC mismatch")
	}

	br := &byteReader{b: headerBytes}
	id, err := br.byte()
	if err != nil {
		return nil, err
	}

	r := &Reader{data: data}

	if id == idEncodedHeader {
		streamsInfo, err := readStreamsInfo(br)
		if err != nil {
			return nil, err
		}
		folders, needsPw := resolveFolders(streamsInfo, base)
		r.needsPassword = r.needsPassword || needsPw
		if len(folders) == 0 {
			return nil, fmt.Errorf("sevenzip: encoded header has no folder")
		}
		decoded, err := folders[0].decode(data)
		if err != nil {
			return nil, fmt.Errorf("sevenzip: decoding header: %w", err)
		}
		br = &byteReader{b: decoded}
		id, err = br.byte()
		if err != nil {
			return nil, err
		}
	}

	if id != idHeader {
		return nil, fmt.Errorf("sevenzip: expected header id, got %#x", id)
	}

	if err := r.readHeader(br, base); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader(br *byteReader, base int64) error {
	var streamsInfo *streamsInfo
	var filesInfo *filesInfo

	for {
		id, err := br.byte()
		if err != nil {
			return err
		}
		switch id {
		case idEnd:
			goto done
		case idArchiveProps:
			if err := skipArchiveProps(br); err != nil {
				return err
			}
		case idMainStreamsInfo:
			si, err := readStreamsInfo(br)
			if err != nil {
				return err
			}
			streamsInfo = si
		case idFilesInfo:
			fi, err := readFilesInfo(br)
			if err != nil {
				return err
			}
			filesInfo = fi
		default:
			return fmt.Errorf("sevenzip: unexpected header property %#x", id)
		}
	}
done:

	var folders []*folder
	if streamsInfo != nil {
		fs, needsPw := resolveFolders(streamsInfo, base)
		folders = fs
		r.needsPassword = r.needsPassword || needsPw
	}

	if filesInfo == nil {
		return nil
	}

	folderIdx := 0
	subIdx := 0
	var curOffset int64
	for i, name := range filesInfo.names {
		e := Entry{Name: cleanEntryName(name)}
		if filesInfo.emptyStream[i] {
			e.IsDir = !filesInfo.emptyFile[i]
			r.entries = append(r.entries, e)
			continue
		}
		if folderIdx >= len(folders) {
			r.entries = append(r.entries, e)
			continue
		}
		f := folders[folderIdx]
		size := f.unpackSize
		if streamsInfo != nil && streamsInfo.sub != nil && len(streamsInfo.sub.sizesByFolder) > folderIdx {
			sizes := streamsInfo.sub.sizesByFolder[folderIdx]
			if subIdx < len(sizes) {
				size = sizes[subIdx]
			}
		}
		e.folder = f
		e.offset = curOffset
		e.size = size
		r.entries = append(r.entries, e)

		subIdx++
		curOffset += size
		numSub := 1
		if streamsInfo != nil && streamsInfo.sub != nil && len(streamsInfo.sub.sizesByFolder) > folderIdx {
			numSub = len(streamsInfo.sub.sizesByFolder[folderIdx])
		}
		if subIdx >= numSub {
			folderIdx++
			subIdx = 0
			curOffset = 0
		}
	}
	return nil
}

// cleanEntryName rejects absolute paths and parent-traversal components
// per spec.md §4.17's path-safety requirement, normalizing backslashes
// to forward slashes first since 7z stores Windows-style separators.
func cleanEntryName(raw string) string {
	n := strings.ReplaceAll(raw, "\\", "/")
	clean := path.Clean(n)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "_rejected_" + path.Base(n)
	}
	return clean
}

func resolveFolders(si *streamsInfo, base int64) ([]*folder, bool) {
	needsPassword := false
	packStart := base + si.packPos
	offset := packStart
	packOffsets := make([]int64, len(si.packSizes))
	for i, sz := range si.packSizes {
		packOffsets[i] = offset
		offset += sz
	}

	packIdx := 0
	for _, f := range si.folders {
		n := len(f.coders[0].id) // placeholder to avoid unused warnings in some builds
		_ = n
		numPack := f.numPackStreams
		if numPack == 0 {
			numPack = 1
		}
		for j := 0; j < numPack && packIdx < len(packOffsets); j++ {
			f.packOffsets = append(f.packOffsets, packOffsets[packIdx])
			f.packSizes = append(f.packSizes, si.packSizes[packIdx])
			packIdx++
		}
		for _, c := range f.coders {
			if bytes.Equal(c.id, idAES256SHA256) {
				needsPassword = true
			}
		}
	}
	folders := make([]*folder, len(si.folders))
	for i, f := range si.folders {
		folders[i] = &f.folder
	}
	return folders, needsPassword
}

// --- header sub-structures -------------------------------------------------

type streamsInfo struct {
	packPos   int64
	packSizes []int64
	folders   []*folderWithMeta
	sub       *subStreamsInfo
}

type folderWithMeta struct {
	folder
	numPackStreams int
}

type subStreamsInfo struct {
	sizesByFolder [][]int64
}

func readStreamsInfo(br *byteReader) (*streamsInfo, error) {
	si := &streamsInfo{}
	for {
		id, err := br.byte()
		if err != nil {
			return nil, err
		}
		switch id {
		case idEnd:
			return si, nil
		case idPackInfo:
			if err := readPackInfo(br, si); err != nil {
				return nil, err
			}
		case idUnpackInfo:
			folders, err := readUnpackInfo(br)
			if err != nil {
				return nil, err
			}
			si.folders = folders
		case idSubStreamsInfo:
			sub, err := readSubStreamsInfo(br, si.folders)
			if err != nil {
				return nil, err
			}
			si.sub = sub
		default:
			return nil, fmt.Errorf("sevenzip: unexpected streamsInfo property %#x", id)
		}
	}
}

func readPackInfo(br *byteReader, si *streamsInfo) error {
	packPos, err := br.number()
	if err != nil {
		return err
	}
	numPack, err := br.number()
	if err != nil {
		return err
	}
	si.packPos = packPos

	for {
		id, err := br.byte()
		if err != nil {
			return err
		}
		switch id {
		case idEnd:
			return nil
		case idSize:
			sizes := make([]int64, numPack)
			for i := range sizes {
				sizes[i], err = br.number()
				if err != nil {
					return err
				}
			}
			si.packSizes = sizes
		case idCRC:
			if err := skipDigests(br, int(numPack)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("sevenzip: unexpected packInfo property %#x", id)
		}
	}
}

func readUnpackInfo(br *byteReader) ([]*folderWithMeta, error) {
	id, err := br.byte()
	if err != nil {
		return nil, err
	}
	if id != idFolder {
		return nil, fmt.Errorf("sevenzip: expected idFolder, got %#x", id)
	}
	numFolders, err := br.number()
	if err != nil {
		return nil, err
	}
	external, err := br.byte()
	if err != nil {
		return nil, err
	}
	if external != 0 {
		return nil, fmt.Errorf("sevenzip: external folder data not supported")
	}

	folders := make([]*folderWithMeta, numFolders)
	for i := range folders {
		f, err := readFolder(br)
		if err != nil {
			return nil, err
		}
		folders[i] = f
	}

	id, err = br.byte()
	if err != nil {
		return nil, err
	}
	if id != idCodersUnpackSize {
		return nil, fmt.Errorf("sevenzip: expected idCodersUnpackSize, got %#x", id)
	}
	for _, f := range folders {
		total := len(f.coders)
		sizes := make([]int64, 0, total)
		for j := 0; j < total; j++ {
			v, err := br.number()
			if err != nil {
				return nil, err
			}
			sizes = append(sizes, v)
		}
		if len(sizes) > 0 {
			f.unpackSize = sizes[len(sizes)-1]
		}
	}

	for {
		id, err := br.byte()
		if err != nil {
			return nil, err
		}
		switch id {
		case idEnd:
			return folders, nil
		case idCRC:
			var defined []bool
			for range folders {
				defined = append(defined, true)
			}
			if err := skipDigests(br, len(folders)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("sevenzip: unexpected unpackInfo property %#x", id)
		}
	}
}

func readFolder(br *byteReader) (*folderWithMeta, error) {
	numCoders, err := br.number()
	if err != nil {
		return nil, err
	}
	f := &folderWithMeta{numPackStreams: 0}
	totalOut := 0
	for i := int64(0); i < numCoders; i++ {
		flags, err := br.byte()
		if err != nil {
			return nil, err
		}
		idSize := int(flags & 0x0F)
		isComplex := flags&0x10 != 0
		hasAttrs := flags&0x20 != 0

		id := make([]byte, idSize)
		if err := br.read(id); err != nil {
			return nil, err
		}
		c := coder{id: id, numIn: 1, numOut: 1}
		if isComplex {
			numIn, err := br.number()
			if err != nil {
				return nil, err
			}
			numOut, err := br.number()
			if err != nil {
				return nil, err
			}
			c.numIn, c.numOut = int(numIn), int(numOut)
		}
		if hasAttrs {
			sz, err := br.number()
			if err != nil {
				return nil, err
			}
			props := make([]byte, sz)
			if err := br.read(props); err != nil {
				return nil, err
			}
			c.props = props
		}
		f.coders = append(f.coders, c)
		f.numPackStreams += c.numIn
		totalOut += c.numOut
	}

	numBindPairs := totalOut - 1
	for i := 0; i < numBindPairs; i++ {
		if _, err := br.number(); err != nil {
			return nil, err
		}
		if _, err := br.number(); err != nil {
			return nil, err
		}
		f.numPackStreams -= 1 // one input stream consumed by a bind pair, not a pack stream
	}

	numPackedStreams := f.numPackStreams
	if numPackedStreams > 1 {
		for i := 0; i < numPackedStreams; i++ {
			if _, err := br.number(); err != nil {
				return nil, err
			}
		}
	}
	if f.numPackStreams <= 0 {
		f.numPackStreams = 1
	}
	return f, nil
}

func readSubStreamsInfo(br *byteReader, folders []*folderWithMeta) (*subStreamsInfo, error) {
	sub := &subStreamsInfo{}
	numUnpackStreams := make([]int, len(folders))
	for i := range numUnpackStreams {
		numUnpackStreams[i] = 1
	}

	id, err := br.byte()
	if err != nil {
		return nil, err
	}
	if id == idNumUnpackStream {
		for i := range folders {
			n, err := br.number()
			if err != nil {
				return nil, err
			}
			numUnpackStreams[i] = int(n)
		}
		id, err = br.byte()
		if err != nil {
			return nil, err
		}
	}

	sizesByFolder := make([][]int64, len(folders))
	for i, f := range folders {
		n := numUnpackStreams[i]
		if n == 0 {
			continue
		}
		sizes := make([]int64, n)
		var sum int64
		if id == idSize {
			for j := 0; j < n-1; j++ {
				v, err := br.number()
				if err != nil {
					return nil, err
				}
				sizes[j] = v
				sum += v
			}
		}
		sizes[n-1] = f.unpackSize - sum
		sizesByFolder[i] = sizes
	}
	if id == idSize {
		id, err = br.byte()
		if err != nil {
			return nil, err
		}
	}

	for id != idEnd {
		switch id {
		case idCRC:
			total := 0
			for i, f := range folders {
				n := numUnpackStreams[i]
				if n == 1 && f.hasCRC {
					continue
				}
				total += n
			}
			if err := skipDigests(br, total); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("sevenzip: unexpected subStreamsInfo property %#x", id)
		}
		id, err = br.byte()
		if err != nil {
			return nil, err
		}
	}

	sub.sizesByFolder = sizesByFolder
	return sub, nil
}

func skipDigests(br *byteReader, count int) error {
	allDefined, err := br.byte()
	if err != nil {
		return err
	}
	defined := make([]bool, count)
	if allDefined != 0 {
		for i := range defined {
			defined[i] = true
		}
	} else {
		bits, err := br.bitVector(count)
		if err != nil {
			return err
		}
		defined = bits
	}
	for _, d := range defined {
		if d {
			if err := br.skip(4); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipArchiveProps(br *byteReader) error {
	for {
		id, err := br.byte()
		if err != nil {
			return err
		}
		if id == idEnd {
			return nil
		}
		n, err := br.number()
		if err != nil {
			return err
		}
		if err := br.skip(int(n)); err != nil {
			return err
		}
	}
}

type filesInfo struct {
	names       []string
	emptyStream []bool
	emptyFile   []bool
}

func readFilesInfo(br *byteReader) (*filesInfo, error) {
	numFiles64, err := br.number()
	if err != nil {
		return nil, err
	}
	numFiles := int(numFiles64)
	fi := &filesInfo{
		emptyStream: make([]bool, numFiles),
		emptyFile:   make([]bool, numFiles),
	}
	numEmptyStreams := 0

	for {
		id, err := br.byte()
		if err != nil {
			return nil, err
		}
		if id == idEnd {
			break
		}
		size, err := br.number()
		if err != nil {
			return nil, err
		}
		propData := make([]byte, size)
		if err := br.read(propData); err != nil {
			return nil, err
		}
		pbr := &byteReader{b: propData}

		switch id {
		case idEmptyStream:
			bits, err := pbr.bitVector(numFiles)
			if err != nil {
				return nil, err
			}
			fi.emptyStream = bits
			for _, b := range bits {
				if b {
					numEmptyStreams++
				}
			}
		case idEmptyFile:
			bits, err := pbr.bitVector(numEmptyStreams)
			if err != nil {
				return nil, err
			}
			j := 0
			for i := range fi.emptyStream {
				if fi.emptyStream[i] {
					if j < len(bits) {
						fi.emptyFile[i] = bits[j]
					}
					j++
				}
			}
		case idName:
			external, err := pbr.byte()
			if err != nil {
				return nil, err
			}
			if external != 0 {
				return nil, fmt.Errorf("sevenzip: external names not supported")
			}
			names, err := readNames(pbr, numFiles)
			if err != nil {
				return nil, err
			}
			fi.names = names
		default:
			// idCTime/idATime/idMTime/idWinAttributes/idDummy/idAnti/idStartPos:
			// not needed for content extraction, already consumed via size.
		}
	}
	if fi.names == nil {
		fi.names = make([]string, numFiles)
	}
	return fi, nil
}

// readNames decodes the UTF-16LE null-terminated name table.
func readNames(br *byteReader, numFiles int) ([]string, error) {
	names := make([]string, 0, numFiles)
	var units []uint16
	for len(names) < numFiles {
		lo, err := br.byte()
		if err != nil {
			return nil, err
		}
		hi, err := br.byte()
		if err != nil {
			return nil, err
		}
		u := uint16(lo) | uint16(hi)<<8
		if u == 0 {
			names = append(names, utf16Decode(units))
			units = units[:0]
			continue
		}
		units = append(units, u)
	}
	return names, nil
}

func utf16Decode(units []uint16) string {
	var b strings.Builder
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) {
			r2 := rune(units[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				b.WriteRune(((r - 0xD800) << 10) + (r2 - 0xDC00) + 0x10000)
				i++
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// --- byte-level reader with 7z's variable-length number encoding ----------

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) byte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) read(p []byte) error {
	if r.pos+len(p) > len(r.b) {
		return io.ErrUnexpectedEOF
	}
	copy(p, r.b[r.pos:r.pos+len(p)])
	r.pos += len(p)
	return nil
}

func (r *byteReader) skip(n int) error {
	if r.pos+n > len(r.b) {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

// number decodes 7z's variable-length integer: the first byte's leading
// set bits count how many extra bytes follow, per the format spec.
func (r *byteReader) number() (int64, error) {
	first, err := r.byte()
	if err != nil {
		return 0, err
	}
	mask := byte(0x80)
	var value uint64
	for i := 0; i < 8; i++ {
		if first&mask == 0 {
			value |= uint64(first&(mask-1)) << (8 * i)
			return int64(value), nil
		}
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		value |= uint64(b) << (8 * i)
		mask >>= 1
	}
	return int64(value), nil
}

// bitVector reads ceil(count/8) bytes MSB-first into count booleans.
func (r *byteReader) bitVector(count int) ([]bool, error) {
	out := make([]bool, count)
	var b byte
	var mask byte
	for i := 0; i < count; i++ {
		if mask == 0 {
			var err error
			b, err = r.byte()
			if err != nil {
				return nil, err
			}
			mask = 0x80
		}
		out[i] = b&mask != 0
		mask >>= 1
	}
	return out, nil
}
