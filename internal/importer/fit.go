package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/etl76/etl/internal/model"
)

// SourceFIT marks entries imported from FIT activity files.
const SourceFIT = "fit"

// ErrNoSession is returned for an activity file without sessions.
var ErrNoSession = errors.New("fit: no sessions found")

// FIT converts the first session of a FIT activity file. The start time is
// shown in loc, or in the local time zone when loc is nil.
func FIT(r io.Reader, loc *time.Location) (*model.Record, error) {
	file, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("fit: decode: %w", err)
	}
	activity, err := file.Activity()
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoSession
	}
	if loc == nil {
		loc = time.Local
	}
	return fromSession(activity.Sessions[0], loc), nil
}

const (
	invalidUint16 = 0xFFFF
	invalidUint32 = 0xFFFFFFFF
)

func scaled32(v uint32, scale float64) float64 {
	if v == invalidUint32 {
		return 0
	}
	return float64(v) / scale
}

func scaled16(v uint16, scale float64) float64 {
	if v == invalidUint16 {
		return 0
	}
	return float64(v) / scale
}

// fitEpoch is the zero point of FIT timestamps.
var fitEpoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

func fromSession(s *fit.SessionMsg, loc *time.Location) *model.Record {
	rec := newRecord()
	if s.StartTime.After(fitEpoch) {
		setStart(rec, s.StartTime.In(loc))
	}
	sport := strings.TrimPrefix(s.Sport.String(), "Sport")
	if sport != "" && sport != "Invalid" && !strings.HasPrefix(sport, "(") {
		rec.Activity = model.Categorical(strings.ToLower(sport))
	}

	rec.TimeSeconds = truncate(scaled32(s.TotalTimerTime, 1000))
	rec.TotalTimeSeconds = rec.TimeSeconds
	rec.DistanceMeters = truncate(scaled32(s.TotalDistance, 100))
	rec.TotalDistanceMeters = rec.DistanceMeters

	// m/s to km/h
	rec.AvgSpeed = float32(scaled16(s.AvgSpeed, 1000) * 3.6)
	rec.MaxSpeed = float32(scaled16(s.MaxSpeed, 1000) * 3.6)
	rec.ElevationGain = truncate(scaled16(s.TotalAscent, 1))
	rec.AvgWatts = truncate(scaled16(s.AvgPower, 1))
	rec.MaxWatts = truncate(scaled16(s.MaxPower, 1))
	rec.Kcal = truncate(scaled16(s.TotalCalories, 1))
	rec.Source = SourceFIT
	return rec
}
