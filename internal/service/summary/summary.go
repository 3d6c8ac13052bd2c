package summary

import (
	"math"

	"wastedetect/internal/model"
)

// Summarize computes the coverage percentage and latency shown under a prediction.
//
// Coverage adds up raw box areas, so overlapping boxes are counted twice and the
// result can exceed 100. Box and image sizes are truncated to whole pixels first.
func Summarize(resp *model.PredictionResponse) (model.Summary, error) {
	if resp == nil {
		return model.Summary{}, model.Errorf(model.ErrMalformedResponse, "no response")
	}

	total := resp.ImageWidth * resp.ImageHeight
	if resp.ImageWidth <= 0 || resp.ImageHeight <= 0 {
		return model.Summary{}, model.Errorf(model.ErrMalformedResponse, "image area %d is not positive", total)
	}

	covered := 0
	for _, d := range resp.Predictions {
		covered += int(d.Width) * int(d.Height)
	}

	return model.Summary{
		CoveragePercent: int(math.RoundToEven(100 * float64(covered) / float64(total))),
		LatencyMS:       int(math.RoundToEven(1000 * resp.Time)),
	}, nil
}
