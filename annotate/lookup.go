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
package annotate

import (
	itree "github.com/biogo/store/interval"
	"github.com/grailbio/bio-annotate/interval"
)

// Annotator answers point queries against the annotation: given a coordinate
// and strand, which region kind covers it?  It exists so that read/peak
// labeling pipelines can classify coordinates without re-running the pipeline
// or re-reading the artifacts.
type Annotator struct {
	trees map[treeKey]*itree.IntTree
}

type treeKey struct {
	chrom  string
	strand interval.Strand
}

// treeEntry adapts an Interval to biogo's interval-tree interface.
type treeEntry struct {
	start, end int
	uid        uintptr
	iv         interval.Interval
}

func (e treeEntry) Overlap(b itree.IntRange) bool {
	// Half-open interval indexing.
	return e.end > b.Start && e.start < b.End
}
func (e treeEntry) ID() uintptr           { return e.uid }
func (e treeEntry) Range() itree.IntRange { return itree.IntRange{Start: e.start, End: e.end} }

// NewAnnotator indexes the given interval sets.  The pipeline's output sets
// are mutually exclusive per (chromosome, strand), so a point query hits at
// most one interval per set.
func NewAnnotator(sets ...interval.Set) (*Annotator, error) {
	a := &Annotator{trees: make(map[treeKey]*itree.IntTree)}
	var uid uintptr
	for _, s := range sets {
		for _, iv := range s {
			k := treeKey{iv.Chrom, iv.Strand}
			t := a.trees[k]
			if t == nil {
				t = &itree.IntTree{}
				a.trees[k] = t
			}
			uid++
			if err := t.Insert(treeEntry{start: int(iv.Start), end: int(iv.End), uid: uid, iv: iv}, false); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// Annotator returns a point-query index over the run's four region sets.
func (r *Result) Annotator() (*Annotator, error) {
	return NewAnnotator(r.TSS, r.Exon, r.Intron, r.Intergenic)
}

// At returns the intervals covering pos on the given chromosome and strand.
// For pipeline results this is zero or one interval.
func (a *Annotator) At(chrom string, pos interval.PosType, strand interval.Strand) []interval.Interval {
	t := a.trees[treeKey{chrom, strand}]
	if t == nil {
		return nil
	}
	hits := t.Get(treeEntry{start: int(pos), end: int(pos) + 1})
	out := make([]interval.Interval, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(treeEntry).iv)
	}
	return out
}

// RegionAt returns the region kind covering pos, or "" when pos is not
// covered (e.g. a chromosome that was missing from the size table).
func (a *Annotator) RegionAt(chrom string, pos interval.PosType, strand interval.Strand) string {
	hits := a.At(chrom, pos, strand)
	if len(hits) == 0 {
		return ""
	}
	return hits[0].Region
}
