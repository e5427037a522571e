// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chromsizes supplies chromosome-name -> length tables from the usual
// sources: UCSC chrom.sizes files, samtools .fai indexes, SAM/BAM headers,
// and the UCSC download site keyed by genome build.
package chromsizes

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/bio-annotate/interval"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// Sizes maps a chromosome name to its length in bases.
type Sizes map[string]interval.PosType

// Read parses a chrom.sizes stream: one chromosome per line, name and length
// in the first two whitespace-separated columns.  Columns past the second are
// ignored, so a samtools .fai index parses unchanged.
func Read(in io.Reader) (Sizes, error) {
	sizes := Sizes{}
	scanner := bufio.NewScanner(in)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		cols := strings.Fields(line)
		if len(cols) < 2 {
			return nil, errors.E(fmt.Sprintf("chromsizes.Read: line %d has fewer than two columns", lineIdx))
		}
		length, err := strconv.Atoi(cols[1])
		if err != nil || length < 0 {
			return nil, errors.E(fmt.Sprintf("chromsizes.Read: invalid length %q on line %d", cols[1], lineIdx))
		}
		if _, found := sizes[cols[0]]; found {
			return nil, errors.E(fmt.Sprintf("chromsizes.Read: duplicate chromosome %s on line %d", cols[0], lineIdx))
		}
		sizes[cols[0]] = interval.PosType(length)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "chromsizes.Read")
	}
	return sizes, nil
}

// ReadPath is a wrapper for Read that takes a path instead of an io.Reader,
// decompressing gzip input.
func ReadPath(ctx context.Context, path string) (sizes Sizes, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "chromsizes.ReadPath", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, path)
		}
		reader = gz
	}
	if sizes, err = Read(reader); err != nil {
		return nil, errors.E(err, path)
	}
	return sizes, nil
}

// FromSAMHeader extracts reference names and lengths from a SAM/BAM header.
func FromSAMHeader(header *sam.Header) Sizes {
	sizes := Sizes{}
	for _, ref := range header.Refs() {
		sizes[ref.Name()] = interval.PosType(ref.Len())
	}
	return sizes
}
