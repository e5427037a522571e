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
	"sort"
)

// groupKey identifies a (chromosome, strand) merge group.
type groupKey struct {
	chrom  string
	strand Strand
}

// groupByChromStrand partitions s into (chromosome, strand) groups, each
// sorted by (start, end).  The input order of s is irrelevant, which is what
// makes MergeStranded and Subtract order-independent.
func groupByChromStrand(s Set) map[groupKey]Set {
	groups := make(map[groupKey]Set)
	for _, iv := range s {
		k := groupKey{iv.Chrom, iv.Strand}
		groups[k] = append(groups[k], iv)
	}
	for _, g := range groups {
		sort.SliceStable(g, g.Less)
	}
	return groups
}

// MergeStranded merges overlapping and exactly-adjacent intervals sharing a
// chromosome and strand into single intervals spanning their union.  Two
// intervals merge iff next.Start <= cur.End, i.e. the merge distance
// threshold is zero: abutting intervals ([100,200) and [200,300)) become one.
// Every output interval is tagged with region, and its gene list is the
// sorted, deduplicated union of the constituents' gene lists.
//
// The result is canonical, and the operation is idempotent:
// MergeStranded(MergeStranded(s, r), r) == MergeStranded(s, r).
func MergeStranded(s Set, region string) Set {
	if len(s) == 0 {
		return nil
	}
	var out Set
	for k, g := range groupByChromStrand(s) {
		cur := g[0]
		curGenes := unionGenes(cur.Genes, nil)
		for _, iv := range g[1:] {
			if iv.Start <= cur.End {
				if iv.End > cur.End {
					cur.End = iv.End
				}
				curGenes = unionGenes(curGenes, iv.Genes)
				continue
			}
			out = append(out, Interval{
				Chrom:  k.chrom,
				Start:  cur.Start,
				End:    cur.End,
				Strand: k.strand,
				Region: region,
				Genes:  curGenes,
			})
			cur = iv
			curGenes = unionGenes(iv.Genes, nil)
		}
		out = append(out, Interval{
			Chrom:  k.chrom,
			Start:  cur.Start,
			End:    cur.End,
			Strand: k.strand,
			Region: region,
			Genes:  curGenes,
		})
	}
	return SortCanonical(out)
}

// span is a bare [start, end) range used for coverage bookkeeping.
type span struct {
	start, end PosType
}

// coverage flattens a sorted interval group into disjoint, ascending spans.
func coverage(g Set) []span {
	var spans []span
	for _, iv := range g {
		if n := len(spans); n > 0 && iv.Start <= spans[n-1].end {
			if iv.End > spans[n-1].end {
				spans[n-1].end = iv.End
			}
			continue
		}
		spans = append(spans, span{iv.Start, iv.End})
	}
	return spans
}

// Subtract removes, from every interval of a, the portions covered by any
// interval of b on the same chromosome and strand.  Remainder sub-intervals
// keep the source interval's Region and Genes unchanged; every pipeline stage
// re-merges (and so re-labels) after subtracting.  An interval of a that is
// fully covered by b contributes nothing.  The result is canonical.
func Subtract(a, b Set) Set {
	if len(a) == 0 {
		return nil
	}
	bCov := make(map[groupKey][]span)
	for k, g := range groupByChromStrand(b) {
		bCov[k] = coverage(g)
	}
	var out Set
	for _, iv := range SortCanonical(a) {
		spans := bCov[groupKey{iv.Chrom, iv.Strand}]
		cur := iv.Start
		for _, sp := range spans {
			if sp.end <= cur {
				continue
			}
			if sp.start >= iv.End {
				break
			}
			if sp.start > cur {
				rem := iv
				rem.Start = cur
				rem.End = sp.start
				out = append(out, rem)
			}
			cur = sp.end
			if cur >= iv.End {
				break
			}
		}
		if cur < iv.End {
			rem := iv
			rem.Start = cur
			out = append(out, rem)
		}
	}
	// Overlapping intervals of a can emit remainders out of order (each
	// source interval's remainders are grouped together), so re-sort.
	return SortCanonical(out)
}

// Complement emits, for each chromosome listed in sizes, the gaps left
// uncovered by s on that chromosome: before the first interval, between
// consecutive merged intervals, and after the last one, all clipped to
// [0, length).  Chromosomes present in s but absent from sizes are silently
// skipped; callers that care report them (see annotate.MissingSizes).  The
// emitted gaps carry the given strand, an empty Region, and no gene names.
func Complement(s Set, sizes map[string]PosType, strand Strand) Set {
	perChrom := make(map[string]Set)
	for _, iv := range s {
		perChrom[iv.Chrom] = append(perChrom[iv.Chrom], iv)
	}
	chroms := make([]string, 0, len(sizes))
	for chrom := range sizes {
		chroms = append(chroms, chrom)
	}
	sort.Slice(chroms, func(i, j int) bool { return ChromLess(chroms[i], chroms[j]) })

	var out Set
	for _, chrom := range chroms {
		length := sizes[chrom]
		if length <= 0 {
			continue
		}
		g := perChrom[chrom]
		sort.SliceStable(g, g.Less)
		cur := PosType(0)
		for _, sp := range coverage(g) {
			if sp.start > length {
				sp.start = length
			}
			if sp.end > length {
				sp.end = length
			}
			if sp.start < 0 {
				sp.start = 0
			}
			if sp.end <= cur {
				continue
			}
			if sp.start > cur {
				out = append(out, Interval{Chrom: chrom, Start: cur, End: sp.start, Strand: strand})
			}
			cur = sp.end
		}
		if cur < length {
			out = append(out, Interval{Chrom: chrom, Start: cur, End: length, Strand: strand})
		}
	}
	// Chromosomes were visited in canonical order and gaps emitted left to
	// right, so out is already canonical.
	return out
}
