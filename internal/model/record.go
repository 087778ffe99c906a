// Package model defines the training log entry and its column schema.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etl76/etl/internal/codec"
)

// Categorical is a free-text label of an open category such as activity,
// intensity, gear, route, weather or source.
type Categorical string

// String returns the label.
func (c Categorical) String() string {
	return string(c)
}

// Record is one training log entry.
//
// Totals are expected to equal warm-up + main phase + cool-down, but nothing
// here enforces it; see CheckTotals and RecomputeTotals.
type Record struct {
	Year  uint
	Month uint
	Day   uint
	When  uint // seconds since midnight

	Phase       int
	Activity    Categorical
	Description string
	Commute     bool

	TotalTimeSeconds    uint
	TotalDistanceMeters uint

	WarmUpTimeSeconds    uint
	WarmUpDistanceMeters uint

	TimeSeconds    uint
	DistanceMeters uint
	Intensity      Categorical
	Squats         uint
	PushUps        uint
	Crunches       uint
	Turtles        uint
	Calfs          uint
	Repetitions    uint
	AvgSpeed       float32 // km/h
	MaxSpeed       float32 // km/h
	ElevationGain  uint
	AvgWatts       uint
	MaxWatts       uint
	Gear           Categorical
	Route          Categorical
	URL            string
	Kcal           uint

	CoolDownTimeSeconds    uint
	CoolDownDistanceMeters uint

	Weight             float32 // kg
	Weather            Categorical
	WeatherTemperature int // °C
	Where              string

	BMI             float32
	GramsOfFatBurnt uint

	Source Categorical // strava:<id>, manual, paper:<year>, ...

	datasetIndex int
}

// DatasetIndex returns the position assigned by the owning dataset on its
// last refresh. It is never persisted.
func (r *Record) DatasetIndex() int {
	return r.datasetIndex
}

// SetDatasetIndex sets the transient position.
func (r *Record) SetDatasetIndex(index int) {
	r.datasetIndex = index
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// YearMonthDay renders the entry date as yyyy/mm/dd.
func (r *Record) YearMonthDay() string {
	return codec.FormatDate(r.Year, r.Month, r.Day)
}

// ToCsvRow renders one data line in canonical column order, terminated by a
// line break.
func (r *Record) ToCsvRow() string {
	cells := make([]string, len(Columns))
	for i, c := range Columns {
		cells[i] = c.Cell(r)
	}
	return strings.Join(cells, Separator) + "\n"
}

// ToDisplayString renders every field on its own line for confirmation
// before an entry is committed.
func (r *Record) ToDisplayString() string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-22s %s\n", label+":", value)
	}
	line("Date", r.YearMonthDay())
	line("When", codec.FormatDuration(r.When))
	line("Phase", fmt.Sprint(r.Phase))
	line("Activity", r.Activity.String())
	line("Description", r.Description)
	line("Commute", fmt.Sprint(r.Commute))
	line("Total time", codec.FormatDuration(r.TotalTimeSeconds))
	line("Total distance", codec.FormatDistance(r.TotalDistanceMeters))
	line("Warm-up time", codec.FormatDuration(r.WarmUpTimeSeconds))
	line("Warm-up distance", codec.FormatDistance(r.WarmUpDistanceMeters))
	line("Time", codec.FormatDuration(r.TimeSeconds))
	line("Distance", codec.FormatDistance(r.DistanceMeters))
	line("Intensity", r.Intensity.String())
	line("Squats", fmt.Sprint(r.Squats))
	line("Push-ups", fmt.Sprint(r.PushUps))
	line("Crunches", fmt.Sprint(r.Crunches))
	line("Turtles", fmt.Sprint(r.Turtles))
	line("Calfs", fmt.Sprint(r.Calfs))
	line("Repetitions", fmt.Sprint(r.Repetitions))
	line("Avg speed", codec.FormatFloat(r.AvgSpeed)+"km/h")
	line("Max speed", codec.FormatFloat(r.MaxSpeed)+"km/h")
	line("Elevation gain", codec.FormatDistance(r.ElevationGain))
	line("Avg watts", fmt.Sprint(r.AvgWatts))
	line("Max watts", fmt.Sprint(r.MaxWatts))
	line("Gear", r.Gear.String())
	line("Route", r.Route.String())
	line("URL", r.URL)
	line("Kcal", fmt.Sprint(r.Kcal))
	line("Cool-down time", codec.FormatDuration(r.CoolDownTimeSeconds))
	line("Cool-down distance", codec.FormatDistance(r.CoolDownDistanceMeters))
	line("Weight", codec.FormatMass(r.Weight))
	line("Weather", r.Weather.String())
	line("Weather temperature", fmt.Sprintf("%d°C", r.WeatherTemperature))
	line("Where", r.Where)
	line("BMI", codec.FormatFloat(r.BMI))
	line("Fat burnt", codec.FormatMassLoss(r.GramsOfFatBurnt))
	line("Source", r.Source.String())
	return b.String()
}

// TotalsError reports a total that differs from the sum of its phases.
type TotalsError struct {
	Field string
	Total uint
	Sum   uint
}

func (e *TotalsError) Error() string {
	return fmt.Sprintf("%s is %d but warm-up + main + cool-down is %d", e.Field, e.Total, e.Sum)
}

// CheckTotals reports total time and total distance that do not match
// warm-up + main phase + cool-down. Callers opt into this check.
func (r *Record) CheckTotals() error {
	var errs []error
	if sum := r.WarmUpTimeSeconds + r.TimeSeconds + r.CoolDownTimeSeconds; sum != r.TotalTimeSeconds {
		errs = append(errs, &TotalsError{Field: "total_time_seconds", Total: r.TotalTimeSeconds, Sum: sum})
	}
	if sum := r.WarmUpDistanceMeters + r.DistanceMeters + r.CoolDownDistanceMeters; sum != r.TotalDistanceMeters {
		errs = append(errs, &TotalsError{Field: "total_distance_meters", Total: r.TotalDistanceMeters, Sum: sum})
	}
	return errors.Join(errs...)
}

// RecomputeTotals sets both totals from the phases.
func (r *Record) RecomputeTotals() {
	r.TotalTimeSeconds = r.WarmUpTimeSeconds + r.TimeSeconds + r.CoolDownTimeSeconds
	r.TotalDistanceMeters = r.WarmUpDistanceMeters + r.DistanceMeters + r.CoolDownDistanceMeters
}
