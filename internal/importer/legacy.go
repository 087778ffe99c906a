package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/etl76/etl/internal/codec"
	"github.com/etl76/etl/internal/model"
)

// yearLog is one YAML training log file covering a single year.
type yearLog struct {
	Year uint       `yaml:"year"`
	Log  []logEntry `yaml:"log"`
}

type logEntry struct {
	Date        string `yaml:"date"` // mm/dd
	Activity    string `yaml:"activity"`
	Distance    string `yaml:"distance"` // 12.5km
	Time        string `yaml:"time"`     // 1h3'10.7
	Weight      string `yaml:"weight"`   // 92.5kg
	Description string `yaml:"description"`
	Where       string `yaml:"where"`
	Track       string `yaml:"track"`
}

// LegacyYAML converts a YAML year log of the first generation training log.
func LegacyYAML(r io.Reader) ([]*model.Record, error) {
	var doc yearLog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("yaml: empty document")
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc.Year == 0 {
		return nil, fmt.Errorf("yaml: missing year")
	}
	out := make([]*model.Record, 0, len(doc.Log))
	for i, e := range doc.Log {
		rec, err := legacyRecord(doc.Year, e)
		if err != nil {
			return nil, fmt.Errorf("yaml: entry %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func legacyRecord(year uint, e logEntry) (*model.Record, error) {
	rec := newRecord()
	rec.Year = year
	month, day, ok := strings.Cut(e.Date, "/")
	m, merr := strconv.ParseUint(month, 10, 8)
	d, derr := strconv.ParseUint(day, 10, 8)
	if !ok || merr != nil || derr != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return nil, &codec.FormatError{Field: "date", Value: e.Date, Expected: "mm/dd", Empty: e.Date == ""}
	}
	rec.Month, rec.Day = uint(m), uint(d)
	if e.Activity != "" {
		rec.Activity = model.Categorical(strings.ToLower(e.Activity))
	}
	rec.Description = e.Description
	rec.Where = e.Where
	rec.URL = e.Track

	if e.Distance != "" {
		km, ok := strings.CutSuffix(e.Distance, "km")
		v, err := strconv.ParseFloat(strings.TrimSpace(km), 64)
		if !ok || err != nil || v < 0 {
			return nil, &codec.FormatError{Field: "distance", Value: e.Distance, Expected: "<number>km"}
		}
		rec.DistanceMeters = uint(math.Round(v * 1000))
		rec.TotalDistanceMeters = rec.DistanceMeters
	}
	if e.Time != "" {
		seconds, err := ParseLegacyTime(e.Time)
		if err != nil {
			return nil, err
		}
		rec.TimeSeconds = seconds
		rec.TotalTimeSeconds = seconds
	}
	if e.Weight != "" {
		kg, err := codec.ParseMass(e.Weight, "weight")
		if err != nil {
			return nil, err
		}
		rec.Weight = kg
	}
	rec.Source = model.Categorical(fmt.Sprintf("yaml:%d", year))
	return rec, nil
}

// ParseLegacyTime parses the stopwatch notation of the YAML logs into whole
// seconds: 1h3'10.7, 1h4', 3'10.7, 3'10, 3', 10.7, 11 or 1h. Tenths are
// dropped.
func ParseLegacyTime(s string) (uint, error) {
	bad := &codec.FormatError{Field: "time", Value: s, Expected: "1h3'10.7", Empty: s == ""}
	rest := strings.TrimSpace(s)
	if rest == "" {
		return 0, bad
	}
	var hours, minutes, seconds uint64
	var err error
	if h, tail, ok := strings.Cut(rest, "h"); ok {
		if hours, err = strconv.ParseUint(h, 10, 32); err != nil {
			return 0, bad
		}
		rest = tail
	}
	if m, tail, ok := strings.Cut(rest, "'"); ok {
		if minutes, err = strconv.ParseUint(m, 10, 32); err != nil {
			return 0, bad
		}
		rest = tail
	}
	if rest != "" {
		whole, _, _ := strings.Cut(rest, ".")
		if seconds, err = strconv.ParseUint(whole, 10, 32); err != nil {
			return 0, bad
		}
	}
	return uint(hours*3600 + minutes*60 + seconds), nil
}
