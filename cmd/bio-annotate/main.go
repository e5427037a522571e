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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bio-annotate/annotate"
)

var (
	tssRadius   = flag.Int("tss-radius", annotate.DefaultOpts.TSSRadius, "Promoter half-window around each transcription start site, in bases")
	primaryOnly = flag.Bool("primary-only", annotate.DefaultOpts.PrimaryOnly, "Drop gene-model records on scaffolds, keeping only chr1..chrN/chrX/chrY/chrM")
	sizesPath   = flag.String("sizes", annotate.DefaultOpts.SizesPath, "Local chrom.sizes or .fai path; if empty, the table is downloaded from UCSC")
	build       = flag.String("build", annotate.DefaultOpts.Build, "Genome build for the UCSC size lookup (hg38, hg19, mm39, mm10); if empty, inferred from the annotation header")
	outPrefix   = flag.String("out", annotate.DefaultOpts.OutPrefix, "Output path prefix")
	tempDir     = flag.String("temp-dir", annotate.DefaultOpts.TempDir, "Parent of the scoped working directory (default: the output directory)")
)

func bioAnnotateUsage() {
	fmt.Printf("Usage: %s [OPTIONS] gtfpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioAnnotateUsage
	shutdown := grail.Init()
	defer shutdown()

	allArgs := flag.Args()
	nPositionalArgs := flag.NArg()
	positionalArgs := allArgs[len(allArgs)-nPositionalArgs:]
	if nPositionalArgs != 1 {
		if nPositionalArgs < 1 {
			log.Fatalf("Missing positional argument (gtfpath required); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		} else {
			log.Fatalf("Too many positional arguments (only gtfpath expected); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		}
	}
	ctx := vcontext.Background()
	opts := annotate.Opts{
		GTFPath:     positionalArgs[0],
		TSSRadius:   *tssRadius,
		PrimaryOnly: *primaryOnly,
		SizesPath:   *sizesPath,
		Build:       *build,
		OutPrefix:   *outPrefix,
		TempDir:     *tempDir,
	}
	result, err := annotate.Run(ctx, opts)
	if err != nil {
		if result != nil && len(result.Paths) > 0 {
			log.Error.Printf("bio-annotate: wrote %s before failing", strings.Join(result.Paths, ", "))
		}
		log.Fatalf("bio-annotate: %v", err)
	}
	log.Printf("bio-annotate: done (%d tss, %d exon, %d intron, %d intergenic interval(s))",
		len(result.TSS), len(result.Exon), len(result.Intron), len(result.Intergenic))
}
