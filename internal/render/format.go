package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatTokens renders a token count in compact form: 1500 -> "1.5K".
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatCost renders a dollar amount. Sub-cent values keep four decimal
// places so tiny per-call costs stay visible; zero renders as "-".
func FormatCost(c float64) string {
	if c == 0 {
		return "-"
	}
	if c < 0.01 {
		return fmt.Sprintf("$%.4f", c)
	}
	return fmt.Sprintf("$%.2f", c)
}

// FormatDelta renders a signed percentage with a direction arrow.
// Growth paints red (more spend), decline green.
func FormatDelta(pct float64, st Styles) string {
	switch {
	case pct > 0:
		return st.Red(fmt.Sprintf("↑%.0f%%", pct))
	case pct < 0:
		return st.Green(fmt.Sprintf("↓%.0f%%", -pct))
	default:
		return st.Dim("→0%")
	}
}

// Matches "vendor-variant-1-2-20251016" style identifiers so the vendor
// prefix and date suffix can be dropped.
var modelDatePattern = regexp.MustCompile(`^\w+-([a-z]\w+)-(\d+-\d+)(?:-\d+)?$`)

// ShortModel abbreviates common model identifiers to save table width:
// "anthropic-claude-3-5-20241022" becomes "claude-3-5".
func ShortModel(name string) string {
	if m := modelDatePattern.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2]
	}
	name = strings.TrimSuffix(name, "-preview")
	name = strings.ReplaceAll(name, "grok-code-", "grok-")
	name = strings.TrimSuffix(name, "-free")
	return name
}

var sparkRamp = []rune("▁▂▃▄▅▆▇█")

// SparkBar maps value against maxValue onto a single block rune from
// the eight-step ramp. Non-positive inputs collapse to the lowest step.
func SparkBar(value, maxValue int64) string {
	if value <= 0 || maxValue <= 0 {
		return string(sparkRamp[0])
	}
	idx := int(float64(value) / float64(maxValue) * 7)
	if idx > 7 {
		idx = 7
	}
	return string(sparkRamp[idx])
}
