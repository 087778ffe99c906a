// Package codec converts the compact text formats typed into the entry form
// (dates, durations, distances, weights, fat burnt) to numbers and back.
package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholders shown in empty form fields.
const (
	DefaultTime   = "00h00m00s"
	DefaultWeight = "0kg"
	DefaultMeters = "0m"
	DefaultGrams  = "0g"
)

// Expected patterns reported in errors.
const (
	PatternDate     = "yyyy/mm/dd"
	PatternDuration = "HHhMMmSSs"
	PatternClock    = "HH:MM:SS"
	PatternDistance = "<digits>m"
	PatternMass     = "<number>kg"
	PatternMassLoss = "<digits>g"
)

// FormatError reports text that does not match the expected format of a field.
type FormatError struct {
	Field    string
	Value    string
	Expected string
	Empty    bool
}

func (e *FormatError) Error() string {
	return e.Field + ": " + e.Detail()
}

// Detail describes the problem without naming the field.
func (e *FormatError) Detail() string {
	if e.Empty {
		return "empty value, expected " + e.Expected
	}
	return fmt.Sprintf("invalid value %q, expected %s", e.Value, e.Expected)
}

func formatErr(field, value, expected string) *FormatError {
	return &FormatError{Field: field, Value: value, Expected: expected, Empty: value == ""}
}

// ParseDate parses yyyy/mm/dd into its parts.
func ParseDate(s, field string) (year, month, day uint, err error) {
	if s == "" {
		return 0, 0, 0, formatErr(field, s, PatternDate)
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, 0, 0, formatErr(field, s, PatternDate)
	}
	values := make([]uint, 3)
	for i, p := range parts {
		v, perr := strconv.ParseUint(p, 10, 32)
		if perr != nil {
			return 0, 0, 0, formatErr(field, s, PatternDate)
		}
		values[i] = uint(v)
	}
	return values[0], values[1], values[2], nil
}

// FormatDate renders yyyy/mm/dd.
func FormatDate(year, month, day uint) string {
	return fmt.Sprintf("%04d/%02d/%02d", year, month, day)
}

// ParseDuration parses HHhMMmSSs into seconds. The hour part has at least
// two digits and no extra leading zero; minutes and seconds must be below 60
// so that FormatDuration reproduces the input.
func ParseDuration(s, field string) (uint, error) {
	hours, rest, ok := strings.Cut(s, "h")
	if !ok || len(hours) < 2 || (len(hours) > 2 && hours[0] == '0') ||
		len(rest) != 6 || rest[2] != 'm' || rest[5] != 's' {
		return 0, formatErr(field, s, PatternDuration)
	}
	h, err := strconv.ParseUint(hours, 10, 32)
	if err != nil {
		return 0, formatErr(field, s, PatternDuration)
	}
	m, sec, ok := minutesSeconds(rest[0:2], rest[3:5])
	if !ok {
		return 0, formatErr(field, s, PatternDuration)
	}
	total := h*3600 + m*60 + sec
	if total > math.MaxUint32 {
		return 0, formatErr(field, s, PatternDuration)
	}
	return uint(total), nil
}

// FormatDuration renders seconds as HHhMMmSSs. Durations of 100 hours or
// more get a wider hour part.
func FormatDuration(seconds uint) string {
	return fmt.Sprintf("%02dh%02dm%02ds", seconds/3600, seconds%3600/60, seconds%60)
}

// ParseClock parses a HH:MM:SS time of day into seconds since midnight.
func ParseClock(s, field string) (uint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || len(parts[0]) != 2 {
		return 0, formatErr(field, s, PatternClock)
	}
	h, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil || h > 23 {
		return 0, formatErr(field, s, PatternClock)
	}
	m, sec, ok := minutesSeconds(parts[1], parts[2])
	if !ok {
		return 0, formatErr(field, s, PatternClock)
	}
	return uint(h*3600 + m*60 + sec), nil
}

func minutesSeconds(mm, ss string) (uint64, uint64, bool) {
	if len(mm) != 2 || len(ss) != 2 {
		return 0, 0, false
	}
	m, merr := strconv.ParseUint(mm, 10, 8)
	s, serr := strconv.ParseUint(ss, 10, 8)
	if merr != nil || serr != nil || m >= 60 || s >= 60 {
		return 0, 0, false
	}
	return m, s, true
}

// ParseDistance parses <digits>m. A decimal point is dropped and the
// remaining digits are read as meters, so "28.000m" is 28000 and "1.5m" is 15.
func ParseDistance(s, field string) (uint, error) {
	digits, ok := strings.CutSuffix(s, "m")
	if !ok {
		return 0, formatErr(field, s, PatternDistance)
	}
	digits = strings.ReplaceAll(digits, ".", "")
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, formatErr(field, s, PatternDistance)
	}
	return uint(v), nil
}

// FormatDistance renders meters as <digits>m.
func FormatDistance(meters uint) string {
	return strconv.FormatUint(uint64(meters), 10) + "m"
}

// ParseMass parses <number>kg.
func ParseMass(s, field string) (float32, error) {
	number, ok := strings.CutSuffix(s, "kg")
	if !ok {
		return 0, formatErr(field, s, PatternMass)
	}
	v, err := strconv.ParseFloat(number, 32)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, formatErr(field, s, PatternMass)
	}
	return float32(v), nil
}

// FormatMass renders kilograms as <number>kg using the shortest exact form.
func FormatMass(kg float32) string {
	return FormatFloat(kg) + "kg"
}

// ParseMassLoss parses <digits>g.
func ParseMassLoss(s, field string) (uint, error) {
	digits, ok := strings.CutSuffix(s, "g")
	if !ok {
		return 0, formatErr(field, s, PatternMassLoss)
	}
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, formatErr(field, s, PatternMassLoss)
	}
	return uint(v), nil
}

// FormatMassLoss renders grams as <digits>g.
func FormatMassLoss(grams uint) string {
	return strconv.FormatUint(uint64(grams), 10) + "g"
}

// FormatFloat renders a single precision value in its shortest form.
func FormatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
