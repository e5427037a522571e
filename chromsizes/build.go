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
package chromsizes

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Build identifies a supported genome build by its UCSC name.
type Build string

// The supported builds.  BuildUnknown is returned by InferBuild when no
// known assembly identifier is found.
const (
	BuildUnknown = Build("")
	HG38         = Build("hg38")
	HG19         = Build("hg19")
	MM39         = Build("mm39")
	MM10         = Build("mm10")
)

// buildPatterns maps assembly identifiers, as they appear in annotation
// headers (e.g. "#!genome-build GRCh38.p13"), to UCSC build names.  Exactly
// these four patterns are recognized.
var buildPatterns = []struct {
	keyword string
	build   Build
}{
	{"GRCh38", HG38},
	{"GRCh37", HG19},
	{"GRCm39", MM39},
	{"GRCm38", MM10},
}

// InferBuild scans sampleText (typically the leading comment lines of an
// annotation file) for a known assembly identifier.  It is a pure function
// of its argument; callers decide what to do with BuildUnknown.
func InferBuild(sampleText string) Build {
	for _, p := range buildPatterns {
		if strings.Contains(sampleText, p.keyword) {
			return p.build
		}
	}
	return BuildUnknown
}

// ParseBuild converts a user-supplied build name to a Build.
func ParseBuild(name string) (Build, error) {
	switch b := Build(name); b {
	case HG38, HG19, MM39, MM10:
		return b, nil
	}
	return BuildUnknown, errors.E(fmt.Sprintf("chromsizes.ParseBuild: unsupported genome build %q (supported: hg38, hg19, mm39, mm10)", name))
}

// goldenPathURL is the layout of the UCSC download site.
const goldenPathURL = "https://hgdownload.soe.ucsc.edu/goldenPath"

// FetchBuild downloads the chrom.sizes table for build from the UCSC
// goldenPath layout rooted at baseURL ("" selects the UCSC download site).
func FetchBuild(ctx context.Context, build Build, baseURL string) (Sizes, error) {
	if build == BuildUnknown {
		return nil, errors.E("chromsizes.FetchBuild: unknown genome build")
	}
	if baseURL == "" {
		baseURL = goldenPathURL
	}
	url := fmt.Sprintf("%s/%s/bigZips/%s.chrom.sizes", baseURL, build, build)
	log.Printf("chromsizes: fetching %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.E(err, "chromsizes.FetchBuild", url)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.E(err, "chromsizes.FetchBuild", url)
	}
	defer func() {
		if e := resp.Body.Close(); e != nil {
			log.Error.Printf("chromsizes: closing %s: %v", url, e)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.E(fmt.Sprintf("chromsizes.FetchBuild: %s: %s", url, resp.Status))
	}
	sizes, err := Read(resp.Body)
	if err != nil {
		return nil, errors.E(err, url)
	}
	return sizes, nil
}
