package dimension

import (
	"fmt"
	"log/slog"
)

// CalculateWidth returns the outer width of a part: the larger of minWidth
// and (when adjustForSocket is set) the size read from text, plus
// wallThickness on both sides.
func CalculateWidth(text string, minWidth float64, adjustForSocket bool, wallThickness float64) (float64, error) {
	inner := minWidth
	if adjustForSocket {
		mm, err := ToMetric(text)
		if err != nil {
			return 0, fmt.Errorf("failed to size %q from text: %w", text, err)
		}
		inner = max(mm, minWidth)
	}

	width := inner + 2*wallThickness
	slog.Info("Calculated width", "text", text, "width", width, "adjust_for_socket", adjustForSocket)
	return width, nil
}
