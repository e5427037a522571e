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

// Package annotate partitions a genome into promoter (TSS), exon, intron and
// intergenic regions from a gene-model annotation.
//
// The four stages form a fixed dependency chain over the gene-level set G and
// exon-level set E produced by package genemodel:
//
//   TSS:        promoter windows around each gene's transcription start site,
//               merged.
//   Exon:       E minus TSS, merged.
//   Intron:     G minus (Exon + TSS), merged.
//   Intergenic: per-strand complement of (G + TSS) against the chromosome
//               lengths, merged.
//
// Each stage consumes only previously produced sets and constructs a new one;
// nothing is mutated in place.
package annotate

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bio-annotate/chromsizes"
	"github.com/grailbio/bio-annotate/genemodel"
	"github.com/grailbio/bio-annotate/interval"
)

// Region tags attached to the output interval sets.
const (
	RegionTSS        = "tss"
	RegionExon       = "exon"
	RegionIntron     = "intron"
	RegionIntergenic = "intergenic"
	// regionTmp tags intermediate merges that are re-merged (and so
	// re-tagged) before leaving a stage.
	regionTmp = "_tmp"
)

// Opts defines one annotation run.
type Opts struct {
	// GTFPath is the gene-model annotation input.  Required.
	GTFPath string
	// TSSRadius is the promoter half-window: a gene's promoter is
	// [site-TSSRadius, site+TSSRadius) around its transcription start site.
	TSSRadius int
	// PrimaryOnly drops gene-model records on scaffolds.
	PrimaryOnly bool
	// SizesPath is a local chrom.sizes (or .fai) file.  If empty, the table
	// is fetched from UCSC for Build.
	SizesPath string
	// Build is the UCSC genome build name for the remote size lookup.  If
	// empty, the build is inferred from the annotation header.
	Build string
	// SizesURL overrides the UCSC download URL (tests).
	SizesURL string
	// OutPrefix is the output path prefix; the five artifacts are written to
	// <OutPrefix>.{annotation,tss,exon,intron,intergenic}.bed.
	OutPrefix string
	// TempDir is the parent of the scoped working directory.  If empty, the
	// working directory is created next to the outputs so that publishing is
	// a rename.
	TempDir string
}

// DefaultOpts holds the default option values.
var DefaultOpts = Opts{
	TSSRadius: 300,
	OutPrefix: "bio-annotate",
}

// Result holds the five persisted interval sets of one run.
type Result struct {
	Universe   interval.Set
	TSS        interval.Set
	Exon       interval.Set
	Intron     interval.Set
	Intergenic interval.Set
	// Build is the genome build the chromosome sizes were fetched for, or
	// empty if a local size source was used.
	Build chromsizes.Build
	// Paths lists the published artifacts, in stage order.
	Paths []string
}

// TSS computes the merged promoter windows for a gene set: for a forward
// strand gene the window is [start-radius, start+radius), for a reverse
// strand gene [end-radius, end+radius), clipped at 0 on the left.  A radius
// of zero yields an empty set.
func TSS(genes interval.Set, radius interval.PosType) interval.Set {
	if radius <= 0 {
		return nil
	}
	windows := make(interval.Set, 0, len(genes))
	for _, g := range genes {
		site := g.Start
		if g.Strand == interval.Rev {
			site = g.End
		}
		start := site - radius
		if start < 0 {
			start = 0
		}
		windows = append(windows, interval.Interval{
			Chrom:  g.Chrom,
			Start:  start,
			End:    site + radius,
			Strand: g.Strand,
			Genes:  g.Genes,
		})
	}
	return interval.MergeStranded(windows, RegionTSS)
}

// Exon computes the merged exonic regions outside promoters.
func Exon(exons, tss interval.Set) interval.Set {
	return interval.MergeStranded(interval.Subtract(exons, tss), RegionExon)
}

// Intron computes the merged gene regions outside both promoters and exons.
func Intron(genes, exon, tss interval.Set) interval.Set {
	occupied := interval.MergeStranded(concat(exon, tss), regionTmp)
	return interval.MergeStranded(interval.Subtract(genes, occupied), RegionIntron)
}

// Intergenic computes, independently per strand, the complement of the
// gene-plus-promoter regions against the chromosome lengths, and merges the
// two strand-tagged gap sets.  Chromosomes absent from sizes contribute
// nothing; see MissingSizes.
func Intergenic(genes, tss interval.Set, sizes chromsizes.Sizes) interval.Set {
	var gaps interval.Set
	for _, strand := range []interval.Strand{interval.Fwd, interval.Rev} {
		occupied := interval.MergeStranded(filterStrand(concat(genes, tss), strand), regionTmp)
		gaps = append(gaps, interval.Complement(occupied, sizes, strand)...)
	}
	return interval.MergeStranded(gaps, RegionIntergenic)
}

// MissingSizes returns the chromosomes that appear in s but not in sizes, in
// canonical order.  Those chromosomes are silently absent from Intergenic's
// output, so callers surface them as a warning.
func MissingSizes(s interval.Set, sizes chromsizes.Sizes) []string {
	var missing []string
	for _, chrom := range interval.Chroms(s) {
		if _, found := sizes[chrom]; !found {
			missing = append(missing, chrom)
		}
	}
	return missing
}

func concat(sets ...interval.Set) interval.Set {
	var n int
	for _, s := range sets {
		n += len(s)
	}
	out := make(interval.Set, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func filterStrand(s interval.Set, strand interval.Strand) interval.Set {
	var out interval.Set
	for _, iv := range s {
		if iv.Strand == strand {
			out = append(out, iv)
		}
	}
	return out
}

// resolveSizes picks the chromosome-length source: a local file if one was
// given, otherwise a remote fetch keyed by the declared or inferred build.
func resolveSizes(ctx context.Context, opts Opts, sample string) (chromsizes.Sizes, chromsizes.Build, error) {
	if opts.SizesPath != "" {
		sizes, err := chromsizes.ReadPath(ctx, opts.SizesPath)
		return sizes, chromsizes.BuildUnknown, err
	}
	var build chromsizes.Build
	if opts.Build != "" {
		var err error
		if build, err = chromsizes.ParseBuild(opts.Build); err != nil {
			return nil, chromsizes.BuildUnknown, err
		}
	} else if build = chromsizes.InferBuild(sample); build == chromsizes.BuildUnknown {
		return nil, chromsizes.BuildUnknown, errors.E(
			"annotate: no chromosome-size file given and the genome build could not be inferred from the annotation; pass one explicitly")
	}
	sizes, err := chromsizes.FetchBuild(ctx, build, opts.SizesURL)
	return sizes, build, err
}

// Run executes the full pipeline and publishes the five artifacts.
//
// If the chromosome-size source turns out to be unavailable, the TSS, exon
// and intron artifacts have already been published; Run then returns both the
// partial Result and the error.  Any other error aborts with a nil Result.
// A stage artifact is published by rename only after it is fully written, so
// a failed run never leaves a partial output file behind.
func Run(ctx context.Context, opts Opts) (*Result, error) {
	if opts.GTFPath == "" {
		return nil, errors.E("annotate: no gene-model input provided")
	}
	if opts.TSSRadius < 0 {
		return nil, errors.E("annotate: negative TSS radius")
	}
	model, err := genemodel.Read(ctx, opts.GTFPath, genemodel.Opts{PrimaryOnly: opts.PrimaryOnly})
	if err != nil {
		return nil, err
	}

	// The working directory is scoped to this run and released on every exit
	// path.
	parent := opts.TempDir
	if parent == "" {
		parent = filepath.Dir(opts.OutPrefix)
	}
	workDir, err := ioutil.TempDir(parent, ".bio-annotate-")
	if err != nil {
		return nil, errors.E(err, "annotate: creating working directory")
	}
	defer func() {
		if e := os.RemoveAll(workDir); e != nil {
			log.Error.Printf("annotate: removing working directory %s: %v", workDir, e)
		}
	}()
	w := &setWriter{workDir: workDir, prefix: opts.OutPrefix}

	result := &Result{Universe: model.Universe}
	if err := w.write("annotation", result.Universe); err != nil {
		return nil, err
	}
	result.TSS = TSS(model.Genes, interval.PosType(opts.TSSRadius))
	if err := w.write(RegionTSS, result.TSS); err != nil {
		return nil, err
	}
	result.Exon = Exon(model.Exons, result.TSS)
	if err := w.write(RegionExon, result.Exon); err != nil {
		return nil, err
	}
	result.Intron = Intron(model.Genes, result.Exon, result.TSS)
	if err := w.write(RegionIntron, result.Intron); err != nil {
		return nil, err
	}

	sizes, build, err := resolveSizes(ctx, opts, model.Sample)
	if err != nil {
		result.Paths = w.published
		return result, err
	}
	result.Build = build
	if missing := MissingSizes(concat(model.Genes, result.TSS), sizes); len(missing) > 0 {
		log.Error.Printf("annotate: no chromosome length for %s; their intergenic output is omitted",
			strings.Join(missing, ", "))
	}
	result.Intergenic = Intergenic(model.Genes, result.TSS, sizes)
	if err := w.write(RegionIntergenic, result.Intergenic); err != nil {
		result.Paths = w.published
		return result, err
	}
	result.Paths = w.published
	return result, nil
}
