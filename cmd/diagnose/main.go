// Command diagnose runs a single image through the detection pipeline with
// the built-in catalog and prints the outcome as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/detection"
	"github.com/kdimtricp/leafscan/internal/features"
)

type report struct {
	File        string                      `json:"file"`
	Features    *features.FeatureVector     `json:"features,omitempty"`
	Scores      []detection.ScoredCandidate `json:"scores,omitempty"`
	Result      detection.Result            `json:"result"`
	DiseaseInfo []detection.DiseaseInfo     `json:"disease_info"`
}

func main() {
	var (
		file    = flag.String("file", "", "Image file to analyze")
		crop    = flag.String("crop", "", "Crop type (cotton or coconut)")
		seed    = flag.Uint64("seed", 0, "Random seed for maturity and field layout; 0 picks one")
		verbose = flag.Bool("v", false, "Include the feature vector and every signature score")
		timeout = flag.Duration("timeout", 30*time.Second, "Detection timeout")
	)
	flag.Parse()

	if *file == "" || *crop == "" {
		log.Fatal("Please provide an image with -file and a crop type with -crop")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("Failed to read image:", err)
	}

	var rng detection.Rand
	if *seed != 0 {
		rng = detection.NewRand(*seed)
	}

	mem := catalog.Default()
	svc := detection.NewService(mem, nil, rng, detection.Config{Timeout: *timeout})

	ctx := context.Background()
	res := svc.Detect(ctx, data, *crop)

	out := report{
		File:        *file,
		Result:      res,
		DiseaseInfo: svc.Describe(ctx, res),
	}

	if *verbose {
		fv, _, err := features.NewExtractor(0).Extract(ctx, data)
		sigs, sigErr := mem.Signatures(ctx, *crop)
		if err == nil && sigErr == nil {
			out.Features = &fv
			out.Scores = detection.ScoreAll(fv, sigs)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("Failed to encode report:", err)
	}

	if res.Err != nil {
		log.Printf("detection failed: %v", res.Err)
		os.Exit(1)
	}
}
