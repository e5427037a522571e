package interval

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestMergeStranded(t *testing.T) {
	s := Set{
		{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd, Genes: []string{"B"}},
		{Chrom: "chr1", Start: 150, End: 300, Strand: Fwd, Genes: []string{"A"}},
		// Exactly adjacent: merges at distance 0.
		{Chrom: "chr1", Start: 300, End: 400, Strand: Fwd, Genes: []string{"A"}},
		// Same range, other strand: stays separate.
		{Chrom: "chr1", Start: 100, End: 400, Strand: Rev, Genes: []string{"C"}},
		// Gap of one base: stays separate.
		{Chrom: "chr1", Start: 401, End: 500, Strand: Rev, Genes: []string{"C"}},
		{Chrom: "chr2", Start: 10, End: 20, Strand: Fwd, Genes: []string{"D"}},
	}
	want := Set{
		{Chrom: "chr1", Start: 100, End: 400, Strand: Fwd, Region: "tss", Genes: []string{"A", "B"}},
		{Chrom: "chr1", Start: 100, End: 400, Strand: Rev, Region: "tss", Genes: []string{"C"}},
		{Chrom: "chr1", Start: 401, End: 500, Strand: Rev, Region: "tss", Genes: []string{"C"}},
		{Chrom: "chr2", Start: 10, End: 20, Strand: Fwd, Region: "tss", Genes: []string{"D"}},
	}
	expect.EQ(t, MergeStranded(s, "tss"), want)
}

func TestMergeOrderIndependent(t *testing.T) {
	s := Set{
		{Chrom: "chr2", Start: 5, End: 15, Strand: Fwd, Genes: []string{"E"}},
		{Chrom: "chr1", Start: 100, End: 250, Strand: Fwd, Genes: []string{"A"}},
		{Chrom: "chr1", Start: 200, End: 300, Strand: Fwd, Genes: []string{"B"}},
		{Chrom: "chr1", Start: 290, End: 320, Strand: Fwd, Genes: []string{"C"}},
		{Chrom: "chr1", Start: 150, End: 180, Strand: Rev, Genes: []string{"D"}},
	}
	want := MergeStranded(s, "x")
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := make(Set, len(s))
		copy(shuffled, s)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		require.Equal(t, want, MergeStranded(shuffled, "x"))
	}
}

func TestMergeIdempotent(t *testing.T) {
	s := Set{
		{Chrom: "chr1", Start: 0, End: 100, Strand: Fwd, Genes: []string{"A"}},
		{Chrom: "chr1", Start: 50, End: 200, Strand: Fwd, Genes: []string{"B"}},
		{Chrom: "chrM", Start: 10, End: 30, Strand: Rev, Genes: []string{"M1"}},
		{Chrom: "chr3", Start: 7, End: 8, Strand: Rev},
	}
	once := MergeStranded(s, "t")
	expect.EQ(t, MergeStranded(once, "t"), once)
}

func TestMergeEmpty(t *testing.T) {
	expect.EQ(t, len(MergeStranded(nil, "t")), 0)
	expect.EQ(t, len(MergeStranded(Set{}, "t")), 0)
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name string
		a, b Set
		want Set
	}{
		{
			name: "middle-cut",
			a:    Set{{Chrom: "chr1", Start: 100, End: 500, Strand: Fwd, Region: "gene", Genes: []string{"A"}}},
			b:    Set{{Chrom: "chr1", Start: 200, End: 300, Strand: Fwd}},
			want: Set{
				{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd, Region: "gene", Genes: []string{"A"}},
				{Chrom: "chr1", Start: 300, End: 500, Strand: Fwd, Region: "gene", Genes: []string{"A"}},
			},
		},
		{
			name: "full-cover",
			a:    Set{{Chrom: "chr1", Start: 1000, End: 1100, Strand: Fwd, Genes: []string{"A"}}},
			b:    Set{{Chrom: "chr1", Start: 700, End: 1300, Strand: Fwd}},
			want: nil,
		},
		{
			name: "strand-mismatch-is-no-op",
			a:    Set{{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd, Genes: []string{"A"}}},
			b:    Set{{Chrom: "chr1", Start: 100, End: 200, Strand: Rev}},
			want: Set{{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd, Genes: []string{"A"}}},
		},
		{
			name: "chrom-mismatch-is-no-op",
			a:    Set{{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd}},
			b:    Set{{Chrom: "chr2", Start: 100, End: 200, Strand: Fwd}},
			want: Set{{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd}},
		},
		{
			name: "overlapping-b-intervals",
			a:    Set{{Chrom: "chr1", Start: 0, End: 1000, Strand: Rev, Genes: []string{"G"}}},
			b: Set{
				{Chrom: "chr1", Start: 100, End: 400, Strand: Rev},
				{Chrom: "chr1", Start: 300, End: 500, Strand: Rev},
				{Chrom: "chr1", Start: 500, End: 600, Strand: Rev},
				{Chrom: "chr1", Start: 900, End: 2000, Strand: Rev},
			},
			want: Set{
				{Chrom: "chr1", Start: 0, End: 100, Strand: Rev, Genes: []string{"G"}},
				{Chrom: "chr1", Start: 600, End: 900, Strand: Rev, Genes: []string{"G"}},
			},
		},
		{
			name: "empty-a",
			a:    nil,
			b:    Set{{Chrom: "chr1", Start: 0, End: 10, Strand: Fwd}},
			want: nil,
		},
		{
			name: "empty-b",
			a:    Set{{Chrom: "chr1", Start: 0, End: 10, Strand: Fwd}},
			b:    nil,
			want: Set{{Chrom: "chr1", Start: 0, End: 10, Strand: Fwd}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect.EQ(t, Subtract(tt.a, tt.b), tt.want)
		})
	}
}

// TestSubtractOverlappingA checks that the result stays canonical when a
// itself contains overlapping intervals (as real exon sets do): the
// remainders of each source interval must interleave, not stay grouped by
// source.
func TestSubtractOverlappingA(t *testing.T) {
	a := Set{
		{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd, Genes: []string{"A"}},
		{Chrom: "chr1", Start: 100, End: 300, Strand: Fwd, Genes: []string{"B"}},
	}
	b := Set{{Chrom: "chr1", Start: 120, End: 150, Strand: Fwd}}
	got := Subtract(a, b)
	expect.EQ(t, got, Set{
		{Chrom: "chr1", Start: 100, End: 120, Strand: Fwd, Genes: []string{"A"}},
		{Chrom: "chr1", Start: 100, End: 120, Strand: Fwd, Genes: []string{"B"}},
		{Chrom: "chr1", Start: 150, End: 200, Strand: Fwd, Genes: []string{"A"}},
		{Chrom: "chr1", Start: 150, End: 300, Strand: Fwd, Genes: []string{"B"}},
	})
	expect.True(t, sort.SliceIsSorted(got, got.Less))
}

// TestSubtractPartition checks that for random same-chromosome same-strand a
// and b, the remainders are disjoint, avoid b, and together with b's overlap
// reconstruct a exactly.
func TestSubtractPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		aStart := PosType(rng.Intn(1000))
		aEnd := aStart + 1 + PosType(rng.Intn(1000))
		bStart := PosType(rng.Intn(1000))
		bEnd := bStart + 1 + PosType(rng.Intn(1000))
		a := Interval{Chrom: "chr1", Start: aStart, End: aEnd, Strand: Fwd}
		b := Interval{Chrom: "chr1", Start: bStart, End: bEnd, Strand: Fwd}

		rem := Subtract(Set{a}, Set{b})
		covered := make([]bool, aEnd-aStart)
		for _, r := range rem {
			require.True(t, r.Start >= a.Start && r.End <= a.End, "remainder outside a")
			require.True(t, r.End <= b.Start || r.Start >= b.End, "remainder overlaps b")
			for p := r.Start; p < r.End; p++ {
				require.False(t, covered[p-aStart], "remainders overlap each other")
				covered[p-aStart] = true
			}
		}
		for p := aStart; p < aEnd; p++ {
			inB := p >= bStart && p < bEnd
			require.Equal(t, !inB, covered[p-aStart], "base %d misclassified", p)
		}
	}
}

func TestComplement(t *testing.T) {
	sizes := map[string]PosType{"chr1": 1000, "chr2": 500}
	s := Set{
		{Chrom: "chr1", Start: 100, End: 200, Strand: Fwd},
		{Chrom: "chr1", Start: 150, End: 400, Strand: Fwd},
		{Chrom: "chr1", Start: 900, End: 1000, Strand: Fwd},
		// chr3 is absent from sizes: silently skipped.
		{Chrom: "chr3", Start: 0, End: 10, Strand: Fwd},
	}
	want := Set{
		{Chrom: "chr1", Start: 0, End: 100, Strand: Fwd},
		{Chrom: "chr1", Start: 400, End: 900, Strand: Fwd},
		{Chrom: "chr2", Start: 0, End: 500, Strand: Fwd},
	}
	expect.EQ(t, Complement(s, sizes, Fwd), want)
}

func TestComplementClipsToLength(t *testing.T) {
	sizes := map[string]PosType{"chr1": 300}
	s := Set{
		// Extends past the declared chromosome length.
		{Chrom: "chr1", Start: 250, End: 600, Strand: Rev},
	}
	want := Set{{Chrom: "chr1", Start: 0, End: 250, Strand: Rev}}
	expect.EQ(t, Complement(s, sizes, Rev), want)
}

func TestComplementEmpty(t *testing.T) {
	sizes := map[string]PosType{"chr1": 100}
	expect.EQ(t, Complement(nil, sizes, Fwd), Set{
		{Chrom: "chr1", Start: 0, End: 100, Strand: Fwd},
	})
	expect.EQ(t, len(Complement(nil, nil, Fwd)), 0)
}

// TestComplementCompleteness checks that complement plus merge exactly tiles
// [0, length) for every chromosome in the size table.
func TestComplementCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sizes := map[string]PosType{"chr1": 2000, "chr2": 1500, "chrM": 700}
	for trial := 0; trial < 50; trial++ {
		var s Set
		chroms := []string{"chr1", "chr2", "chrM"}
		for i := 0; i < 30; i++ {
			chrom := chroms[rng.Intn(len(chroms))]
			start := PosType(rng.Intn(int(sizes[chrom])))
			end := start + 1 + PosType(rng.Intn(300))
			if end > sizes[chrom] {
				end = sizes[chrom]
			}
			if end == start {
				continue
			}
			s = append(s, Interval{Chrom: chrom, Start: start, End: end, Strand: Fwd})
		}
		merged := MergeStranded(s, "t")
		gaps := Complement(merged, sizes, Fwd)
		for chrom, length := range sizes {
			covered := make([]bool, length)
			for _, lst := range []Set{merged, gaps} {
				for _, iv := range lst {
					if iv.Chrom != chrom {
						continue
					}
					for p := iv.Start; p < iv.End; p++ {
						require.False(t, covered[p], "%s:%d covered twice", chrom, p)
						covered[p] = true
					}
				}
			}
			for p, c := range covered {
				require.True(t, c, "%s:%d uncovered", chrom, p)
			}
		}
	}
}
