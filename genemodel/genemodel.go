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

// Package genemodel reads GENCODE-style GTF annotations into canonical
// interval sets.  This is the only place where the GTF's 1-based inclusive
// coordinates are converted to the 0-based half-open convention used
// everywhere else; downstream code never re-adjusts coordinates.
package genemodel

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bio-annotate/interval"
)

// primaryChromRe matches the canonical primary-assembly contig names: chr1..chrN,
// chrX, chrY, chrM, and their bare equivalents (including MT).
var primaryChromRe = regexp.MustCompile(`^(chr)?([0-9]+|[XYM]|MT)$`)

// sampleBytes is how much leading input is retained for genome-build
// inference (chromsizes.InferBuild); GTF headers put the build identifier in
// the first few comment lines.
const sampleBytes = 4096

// Opts defines behavior of this package's GTF-loading functions.
type Opts struct {
	// PrimaryOnly drops records on scaffolds, i.e. contigs outside the
	// canonical primary set (chr1..chrN, chrX, chrY, chrM and bare-numeric
	// equivalents).
	PrimaryOnly bool
}

// Stats counts accepted and dropped records for one load.
type Stats struct {
	Records     int // rows read, comments excluded
	Kept        int
	NoGeneName  int // rows without an extractable gene_name
	BadStrand   int // strand column other than + or -
	BadCoords   int // start < 1 or end < start
	NonPrimary  int // scaffold rows dropped by Opts.PrimaryOnly
	ShortFields int // rows with fewer than 9 fields
}

// Model holds one genome's gene-model intervals, partitioned the way the
// annotation pipeline consumes them.  All three sets are canonical.
type Model struct {
	// Universe contains every accepted record, whatever its feature kind
	// (gene, transcript, exon, CDS, ...), with Region set to the feature name.
	Universe interval.Set
	// Genes is the subset of Universe with feature == "gene".
	Genes interval.Set
	// Exons is the subset of Universe with feature == "exon".
	Exons interval.Set
	// Sample holds the first few KB of the (decompressed) input, for genome
	// build inference.
	Sample string
	Stats  Stats
}

// GTF column indices.  The score (5), frame (7) and source (1) columns are
// carried but unused.
const (
	colChrom = iota
	colSource
	colFeature
	colStart
	colStop
	colScore
	colStrand
	colFrame
	colAttributes
	nCols
)

// parseAttributes parses the semicolon-separated `key "value"` pairs of the
// GTF attribute column into parsed, clearing it first.
func parseAttributes(parsed map[string]string, attributes string) {
	for k := range parsed {
		delete(parsed, k)
	}
	for _, field := range strings.Split(strings.TrimSpace(attributes), ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pair := strings.SplitN(field, " ", 2)
		if len(pair) != 2 {
			continue
		}
		parsed[pair[0]] = strings.Trim(strings.TrimSpace(pair[1]), "\"")
	}
}

// Read loads the GTF at path, transparently decompressing gzip input.
func Read(ctx context.Context, path string, opts Opts) (model *Model, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "genemodel.Read", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	if model, err = ReadFrom(inr, opts); err != nil {
		return nil, errors.E(err, path)
	}
	return model, nil
}

// ReadFrom loads a GTF from an uncompressed stream.  Unusable rows (too few
// columns, unknown strand, bad coordinates, no extractable gene_name) are
// dropped and counted, never fatal; only a read failure aborts the load.
func ReadFrom(in io.Reader, opts Opts) (*Model, error) {
	var sample bytes.Buffer
	scanner := bufio.NewScanner(io.TeeReader(in, &capWriter{buf: &sample, max: sampleBytes}))
	// Scanner does not auto-resize its buffer; GTF attribute columns can make
	// lines a few KB long.
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	model := &Model{}
	stats := &model.Stats
	attrs := map[string]string{}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		stats.Records++
		cols := strings.SplitN(line, "\t", nCols)
		if len(cols) < nCols {
			stats.ShortFields++
			continue
		}
		chrom := cols[colChrom]
		if opts.PrimaryOnly && !primaryChromRe.MatchString(chrom) {
			stats.NonPrimary++
			continue
		}
		strand, ok := interval.ParseStrand(cols[colStrand])
		if !ok {
			stats.BadStrand++
			continue
		}
		start, err := strconv.Atoi(cols[colStart])
		if err != nil {
			stats.BadCoords++
			continue
		}
		stop, err := strconv.Atoi(cols[colStop])
		if err != nil || start < 1 || stop < start {
			stats.BadCoords++
			continue
		}
		parseAttributes(attrs, cols[colAttributes])
		geneName := attrs["gene_name"]
		if geneName == "" {
			stats.NoGeneName++
			continue
		}
		iv := interval.Interval{
			Chrom:  chrom,
			Start:  interval.PosType(start - 1), // 1-based inclusive -> 0-based half-open
			End:    interval.PosType(stop),
			Strand: strand,
			Region: cols[colFeature],
			Genes:  []string{geneName},
		}
		model.Universe = append(model.Universe, iv)
		switch cols[colFeature] {
		case "gene":
			model.Genes = append(model.Genes, iv)
		case "exon":
			model.Exons = append(model.Exons, iv)
		}
		stats.Kept++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "genemodel.ReadFrom")
	}
	model.Sample = sample.String()
	model.Universe = interval.SortCanonical(model.Universe)
	model.Genes = interval.SortCanonical(model.Genes)
	model.Exons = interval.SortCanonical(model.Exons)
	log.Printf("genemodel: %d record(s) read, %d kept (%d gene(s), %d exon(s))",
		stats.Records, stats.Kept, len(model.Genes), len(model.Exons))
	if dropped := stats.Records - stats.Kept; dropped > 0 {
		log.Printf("genemodel: dropped %d record(s): %d without gene_name, %d unstranded, %d with bad coordinates, %d on scaffolds, %d malformed",
			dropped, stats.NoGeneName, stats.BadStrand, stats.BadCoords, stats.NonPrimary, stats.ShortFields)
	}
	return model, nil
}

// capWriter tees up to max bytes and discards the rest, so sampling does not
// buffer the whole input.
type capWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *capWriter) Write(p []byte) (int, error) {
	if room := w.max - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}

// IsPrimaryChrom reports whether chrom belongs to the canonical primary
// assembly (no scaffolds, no patches).
func IsPrimaryChrom(chrom string) bool {
	return primaryChromRe.MatchString(chrom)
}
