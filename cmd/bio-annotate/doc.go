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

/*
Given a GTF gene-model annotation, bio-annotate partitions the genome into
promoter (TSS), exon, intron and intergenic regions and writes each partition,
plus the full annotation universe, as a 6-column BED-style TSV
(chrom, start, end, label, score, strand).

The promoter window radius defaults to 300bp around each gene's transcription
start site.  Chromosome lengths for the intergenic computation come from a
local chrom.sizes (or samtools .fai) file when -sizes is given; otherwise the
table is downloaded from UCSC for the build named by -build, or for the build
inferred from the annotation header.

Sample usage:
bio-annotate \
    --sizes hg38.chrom.sizes \
    --out my-annotation \
    gencode.v34.annotation.gtf.gz
*/
package main
