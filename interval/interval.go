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
package interval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PosType is the integer type used to represent genomic positions.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = PosType(1<<31 - 1)

// Strand identifies which strand of the chromosome an interval annotates.
// Unstranded features are rejected upstream; every Interval in this package
// carries either Fwd or Rev.
type Strand byte

const (
	// Fwd is the forward (Watson, '+') strand.
	Fwd = Strand('+')
	// Rev is the reverse (Crick, '-') strand.
	Rev = Strand('-')
)

// ParseStrand converts the GTF strand column to a Strand.  The second return
// value is false for anything other than "+" or "-".
func ParseStrand(s string) (Strand, bool) {
	switch s {
	case "+":
		return Fwd, true
	case "-":
		return Rev, true
	}
	return 0, false
}

// Score is the placeholder value written to the score column of every output
// row.
const Score = 0

// Interval is a stranded genomic interval annotated with a region kind and
// the names of the genes it derives from.  Start and End are 0-based,
// half-open, with Start < End for every valid Interval.
//
// An Interval is immutable once constructed; algebra operations return new
// Intervals and never modify their inputs.
type Interval struct {
	Chrom  string
	Start  PosType
	End    PosType
	Strand Strand
	// Region is the annotation kind ("tss", "exon", "intron", "intergenic",
	// or the loader's feature name for universe intervals).
	Region string
	// Genes holds the deduplicated, sorted source gene names.
	Genes []string
}

// Label serializes the interval's annotation to the composite label column,
// chrom:region:gene1&gene2:start-end:strand.  The label is derived output;
// nothing in this module parses it back.
func (iv Interval) Label() string {
	var b strings.Builder
	b.WriteString(iv.Chrom)
	b.WriteByte(':')
	b.WriteString(iv.Region)
	b.WriteByte(':')
	b.WriteString(strings.Join(iv.Genes, "&"))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(int64(iv.Start), 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(int64(iv.End), 10))
	b.WriteByte(':')
	b.WriteByte(byte(iv.Strand))
	return b.String()
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d:%c", iv.Chrom, iv.Start, iv.End, iv.Strand)
}

// Set is an ordered sequence of Intervals.  Sets returned by SortCanonical,
// MergeStranded, Subtract and Complement are always in canonical order:
// chromosome rank ascending, then start ascending, then end ascending.
type Set []Interval

// chromClass partitions chromosome names for ranking purposes.
const (
	chromNumeric = iota
	chromAlpha
	chromMito
)

// chromRank splits a chromosome name into a sort class and a class-specific
// key.  Numeric chromosomes sort first in numeric order, then alphabetic ones
// (chrX, chrY, scaffolds) in lexical order, and the mitochondrial chromosome
// sorts after everything else.  A "chr" prefix is ignored for ranking so that
// "chr1" and "1" rank identically.
func chromRank(chrom string) (class int, num int, alpha string) {
	name := strings.TrimPrefix(chrom, "chr")
	if name == "M" || name == "MT" {
		return chromMito, 0, ""
	}
	if n, err := strconv.Atoi(name); err == nil {
		return chromNumeric, n, ""
	}
	return chromAlpha, 0, name
}

// ChromLess reports whether chromosome a sorts before chromosome b under the
// canonical chromosome order.
func ChromLess(a, b string) bool {
	aClass, aNum, aAlpha := chromRank(a)
	bClass, bNum, bAlpha := chromRank(b)
	if aClass != bClass {
		return aClass < bClass
	}
	if aClass == chromNumeric {
		return aNum < bNum
	}
	return aAlpha < bAlpha
}

// Less reports whether s[i] sorts before s[j] under the canonical order.
// Strand is a final tie-break (forward first) so that sets holding the same
// range on both strands still have one deterministic order.
func (s Set) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.Chrom != b.Chrom {
		return ChromLess(a.Chrom, b.Chrom)
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.Strand < b.Strand
}

// SortCanonical returns a copy of s in canonical order.  The sort is stable
// and idempotent; s itself is left untouched.
func SortCanonical(s Set) Set {
	out := make(Set, len(s))
	copy(out, s)
	sort.SliceStable(out, out.Less)
	return out
}

// Chroms returns the distinct chromosome names present in s, in canonical
// chromosome order.
func Chroms(s Set) []string {
	seen := make(map[string]bool)
	var names []string
	for _, iv := range s {
		if !seen[iv.Chrom] {
			seen[iv.Chrom] = true
			names = append(names, iv.Chrom)
		}
	}
	sort.Slice(names, func(i, j int) bool { return ChromLess(names[i], names[j]) })
	return names
}

// unionGenes merges two sorted, deduplicated gene-name lists into a new
// sorted, deduplicated list.
func unionGenes(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, lst := range [2][]string{a, b} {
		for _, g := range lst {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	sort.Strings(out)
	return out
}

// NormalizeGenes sorts and deduplicates a gene-name list, for callers that
// construct Intervals by hand.
func NormalizeGenes(genes []string) []string {
	return unionGenes(genes, nil)
}
