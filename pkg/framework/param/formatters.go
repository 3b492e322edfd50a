package param

import (
	"fmt"
	"strconv"
	"strings"
)

// PercentFormatter formats percentage values
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// BPMFormatter formats tempo values
func BPMFormatter(bpm float64) string {
	return fmt.Sprintf("%.0f BPM", bpm)
}

// BPMParser parses tempo strings such as "120", "120 BPM" or "120bpm"
func BPMParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	str = strings.TrimSuffix(str, "bpm")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// IntegerFormatter formats values rounded to whole numbers
func IntegerFormatter(value float64) string {
	return strconv.FormatInt(int64(value+0.5), 10)
}

// OnOffFormatter formats boolean as On/Off
func OnOffFormatter(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("expected 'on' or 'off', got: %s", str)
	}
}
