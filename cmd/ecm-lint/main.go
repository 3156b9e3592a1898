// ecm-lint is the CI quality gate for collective memory content. It is
// invoked with an observed empty ratio (usually scraped from the daemon's
// health endpoint or a snapshot) and a threshold percentage, and exits
// non-zero when the ratio exceeds the threshold.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/metrics"
)

var version = "dev"

type report struct {
	EmptyRatio float64 `json:"empty_ratio"`
	Threshold  float64 `json:"threshold"`
	Status     string  `json:"status"`
	Pass       bool    `json:"pass"`
}

func main() {
	emptyRatio := flag.Float64("empty-ratio", 0, "observed empty-content ratio in [0,1]")
	threshold := flag.Float64("threshold", 5, "maximum allowed empty ratio, as a percentage")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ecm-lint %s\n", version)
		os.Exit(0)
	}

	code := run(*emptyRatio, *threshold, os.Stdout, os.Stderr)
	os.Exit(code)
}

func run(emptyRatio, threshold float64, out, errOut io.Writer) int {
	if emptyRatio < 0 || emptyRatio > 1 {
		fmt.Fprintln(errOut, "error: --empty-ratio must be in [0,1]")
		return 2
	}
	if threshold < 0 || threshold > 100 {
		fmt.Fprintln(errOut, "error: --threshold must be in [0,100]")
		return 2
	}

	// Grade the ratio with the same thresholds the daemon defaults to, so
	// the status string in CI logs matches the daemon's health endpoint.
	quality := config.DefaultConfig().Quality
	total := 10000
	emptyCount := int(math.Round(emptyRatio * float64(total)))
	health := metrics.Grade(total, emptyCount, quality)

	pass := emptyRatio*100 <= threshold
	r := report{
		EmptyRatio: emptyRatio,
		Threshold:  threshold,
		Status:     string(health.Status),
		Pass:       pass,
	}
	b, _ := json.Marshal(r)
	fmt.Fprintln(out, string(b))

	if !pass {
		fmt.Fprintf(errOut, "memory quality gate failed: empty ratio %.2f%% exceeds threshold %.2f%%\n",
			emptyRatio*100, threshold)
		return 1
	}
	return 0
}
