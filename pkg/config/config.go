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

// Package config layers the safety ceilings (spec.md §4.2/§5) from
// DOCFORGE_* environment variables and an optional YAML/TOML file, the
// way the teacher's config package layers viper sources — trimmed here to
// the single Limits component this library needs.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/corvidlabs/docforge/pkg/safety"
)

// Limits is the one configurable component: the safety ceilings every
// decoder enforces. Zero-value Limits is meaningless; use Default().
type Limits struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`

	ZipBomb safety.ZipBombLimits `mapstructure:",squash"`

	SevenZipMaxFileSize   int64 `mapstructure:"sevenzip_max_file_size"`
	SevenZipMaxWorkingMem int64 `mapstructure:"sevenzip_max_working_mem"`
	ArchiveEntryMemoryCap int64 `mapstructure:"archive_entry_memory_cap"`
}

// Default mirrors spec.md's stated defaults: 100 MiB file size ceiling,
// the §4.2 zip-bomb thresholds, and the §4.16/§4.17 archive caps.
func Default() Limits {
	return Limits{
		MaxFileSize:           100 << 20, // 100 MiB
		ZipBomb:               safety.DefaultZipBombLimits(),
		SevenZipMaxFileSize:   100 << 20, // 100 MiB
		SevenZipMaxWorkingMem: 1 << 30,   // 1 GiB
		ArchiveEntryMemoryCap: 100 << 20, // 100 MiB
	}
}

// Load builds a viper instance layering, in increasing precedence: the
// defaults, an optional config file at path (if non-empty), and
// DOCFORGE_*-prefixed environment variables — the same file-then-env
// layering order the teacher's config/manage.go documents.
func Load(path string) (Limits, error) {
	l := Default()

	v := viper.New()
	v.SetEnvPrefix("DOCFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("max_file_size", l.MaxFileSize)
	v.SetDefault("max_entries", l.ZipBomb.MaxEntries)
	v.SetDefault("max_single_uncompressed_bytes", l.ZipBomb.MaxSingleUncompressedBytes)
	v.SetDefault("max_total_uncompressed_bytes", l.ZipBomb.MaxTotalUncompressedBytes)
	v.SetDefault("max_entry_compression_ratio", l.ZipBomb.MaxEntryCompressionRatio)
	v.SetDefault("max_total_compression_ratio", l.ZipBomb.MaxTotalCompressionRatio)
	v.SetDefault("sevenzip_max_file_size", l.SevenZipMaxFileSize)
	v.SetDefault("sevenzip_max_working_mem", l.SevenZipMaxWorkingMem)
	v.SetDefault("archive_entry_memory_cap", l.ArchiveEntryMemoryCap)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return l, err
		}
	}

	l.MaxFileSize = v.GetInt64("max_file_size")
	l.ZipBomb.MaxEntries = v.GetInt("max_entries")
	l.ZipBomb.MaxSingleUncompressedBytes = v.GetInt64("max_single_uncompressed_bytes")
	l.ZipBomb.MaxTotalUncompressedBytes = v.GetInt64("max_total_uncompressed_bytes")
	l.ZipBomb.MaxEntryCompressionRatio = v.GetInt64("max_entry_compression_ratio")
	l.ZipBomb.MaxTotalCompressionRatio = v.GetInt64("max_total_compression_ratio")
	l.SevenZipMaxFileSize = v.GetInt64("sevenzip_max_file_size")
	l.SevenZipMaxWorkingMem = v.GetInt64("sevenzip_max_working_mem")
	l.ArchiveEntryMemoryCap = v.GetInt64("archive_entry_memory_cap")

	return l, nil
}
