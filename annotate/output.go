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
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/bio-annotate/interval"
)

// setWriter persists interval sets as 6-column BED-style TSV
// (chrom, start, end, label, score, strand).  Each set is fully written into
// the run's working directory first and published to its final path by
// rename, so a write failure never leaves a partial artifact at the final
// path.
type setWriter struct {
	workDir   string
	prefix    string
	published []string
}

func (w *setWriter) write(kind string, s interval.Set) (err error) {
	final := w.prefix + "." + kind + ".bed"
	tmp := filepath.Join(w.workDir, kind+".bed")
	out, err := os.Create(tmp)
	if err != nil {
		return errors.E(err, "annotate: staging", final)
	}
	tsvw := tsv.NewWriter(out)
	for _, iv := range s {
		tsvw.WriteString(iv.Chrom)
		tsvw.WriteUint32(uint32(iv.Start))
		tsvw.WriteUint32(uint32(iv.End))
		tsvw.WriteString(iv.Label())
		tsvw.WriteUint32(interval.Score)
		tsvw.WriteByte(byte(iv.Strand))
		if err = tsvw.EndLine(); err != nil {
			break
		}
	}
	if err == nil {
		err = tsvw.Flush()
	}
	if e := out.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, "annotate: writing", final)
	}
	if err = os.Rename(tmp, final); err != nil {
		return errors.E(err, "annotate: publishing", final)
	}
	w.published = append(w.published, final)
	log.Printf("annotate: wrote %s (%d interval(s))", final, len(s))
	return nil
}
