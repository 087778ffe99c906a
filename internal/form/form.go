// Package form turns the editor's text fields into a log entry and back.
//
// Durations, distances, weights and fat burnt use the compact codec formats;
// the remaining numbers are plain decimals. Every field is checked and all
// failures are returned together, keyed by field name.
package form

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/etl76/etl/internal/codec"
	"github.com/etl76/etl/internal/model"
)

// Defaults for a new entry.
const (
	DefaultWhen      = "12h30m00s"
	DefaultPhase     = "1"
	DefaultActivity  = "rest"
	DefaultIntensity = "fartlek"
	DefaultSource    = "manual"
)

// Form holds one entry as typed into the editor.
type Form struct {
	Date               string
	When               string
	Phase              string
	Activity           string
	Description        string
	Commute            bool
	TotalTime          string
	TotalDistance      string
	WarmUpTime         string
	WarmUpDistance     string
	Time               string
	Distance           string
	Intensity          string
	Squats             string
	PushUps            string
	Crunches           string
	Turtles            string
	Calfs              string
	Repetitions        string
	AvgSpeed           string
	MaxSpeed           string
	ElevationGain      string
	AvgWatts           string
	MaxWatts           string
	Gear               string
	Route              string
	URL                string
	Kcal               string
	CoolDownTime       string
	CoolDownDistance   string
	Weight             string
	Weather            string
	WeatherTemperature string
	Where              string
	BMI                string
	FatBurnt           string
	Source             string
}

type field struct {
	key string
	ptr func(*Form) *string
}

// fields lists the text fields in display order. Commute is handled apart.
var fields = []field{
	{"date", func(f *Form) *string { return &f.Date }},
	{"when", func(f *Form) *string { return &f.When }},
	{"phase", func(f *Form) *string { return &f.Phase }},
	{"activity", func(f *Form) *string { return &f.Activity }},
	{"description", func(f *Form) *string { return &f.Description }},
	{"total_time", func(f *Form) *string { return &f.TotalTime }},
	{"total_distance", func(f *Form) *string { return &f.TotalDistance }},
	{"warm_up_time", func(f *Form) *string { return &f.WarmUpTime }},
	{"warm_up_distance", func(f *Form) *string { return &f.WarmUpDistance }},
	{"time", func(f *Form) *string { return &f.Time }},
	{"distance", func(f *Form) *string { return &f.Distance }},
	{"intensity", func(f *Form) *string { return &f.Intensity }},
	{"squats", func(f *Form) *string { return &f.Squats }},
	{"push_ups", func(f *Form) *string { return &f.PushUps }},
	{"crunches", func(f *Form) *string { return &f.Crunches }},
	{"turtles", func(f *Form) *string { return &f.Turtles }},
	{"calfs", func(f *Form) *string { return &f.Calfs }},
	{"repetitions", func(f *Form) *string { return &f.Repetitions }},
	{"avg_speed", func(f *Form) *string { return &f.AvgSpeed }},
	{"max_speed", func(f *Form) *string { return &f.MaxSpeed }},
	{"elevation_gain", func(f *Form) *string { return &f.ElevationGain }},
	{"avg_watts", func(f *Form) *string { return &f.AvgWatts }},
	{"max_watts", func(f *Form) *string { return &f.MaxWatts }},
	{"gear", func(f *Form) *string { return &f.Gear }},
	{"route", func(f *Form) *string { return &f.Route }},
	{"url", func(f *Form) *string { return &f.URL }},
	{"kcal", func(f *Form) *string { return &f.Kcal }},
	{"cool_down_time", func(f *Form) *string { return &f.CoolDownTime }},
	{"cool_down_distance", func(f *Form) *string { return &f.CoolDownDistance }},
	{"weight", func(f *Form) *string { return &f.Weight }},
	{"weather", func(f *Form) *string { return &f.Weather }},
	{"weather_temperature", func(f *Form) *string { return &f.WeatherTemperature }},
	{"where", func(f *Form) *string { return &f.Where }},
	{"bmi", func(f *Form) *string { return &f.BMI }},
	{"fat_burnt", func(f *Form) *string { return &f.FatBurnt }},
	{"source", func(f *Form) *string { return &f.Source }},
}

// Keys returns the assignable field names in display order.
func Keys() []string {
	keys := make([]string, 0, len(fields)+1)
	for _, fd := range fields {
		keys = append(keys, fd.key)
		if fd.key == "description" {
			keys = append(keys, "commute")
		}
	}
	return keys
}

// New returns a form for an entry dated today with placeholder values.
func New(today time.Time) Form {
	return Form{
		Date:               codec.FormatDate(uint(today.Year()), uint(today.Month()), uint(today.Day())),
		When:               DefaultWhen,
		Phase:              DefaultPhase,
		Activity:           DefaultActivity,
		TotalTime:          codec.DefaultTime,
		TotalDistance:      codec.DefaultMeters,
		WarmUpTime:         codec.DefaultTime,
		WarmUpDistance:     codec.DefaultMeters,
		Time:               codec.DefaultTime,
		Distance:           codec.DefaultMeters,
		Intensity:          DefaultIntensity,
		Squats:             "0",
		PushUps:            "0",
		Crunches:           "0",
		Turtles:            "0",
		Calfs:              "0",
		Repetitions:        "0",
		AvgSpeed:           "0",
		MaxSpeed:           "0",
		ElevationGain:      codec.DefaultMeters,
		AvgWatts:           "0",
		MaxWatts:           "0",
		Kcal:               "0",
		CoolDownTime:       codec.DefaultTime,
		CoolDownDistance:   codec.DefaultMeters,
		Weight:             codec.DefaultWeight,
		WeatherTemperature: "0",
		BMI:                "0",
		FatBurnt:           codec.DefaultGrams,
		Source:             DefaultSource,
	}
}

// FromRecord renders r into form fields.
func FromRecord(r *model.Record) Form {
	u := func(v uint) string { return strconv.FormatUint(uint64(v), 10) }
	return Form{
		Date:               r.YearMonthDay(),
		When:               codec.FormatDuration(r.When),
		Phase:              strconv.Itoa(r.Phase),
		Activity:           r.Activity.String(),
		Description:        r.Description,
		Commute:            r.Commute,
		TotalTime:          codec.FormatDuration(r.TotalTimeSeconds),
		TotalDistance:      codec.FormatDistance(r.TotalDistanceMeters),
		WarmUpTime:         codec.FormatDuration(r.WarmUpTimeSeconds),
		WarmUpDistance:     codec.FormatDistance(r.WarmUpDistanceMeters),
		Time:               codec.FormatDuration(r.TimeSeconds),
		Distance:           codec.FormatDistance(r.DistanceMeters),
		Intensity:          r.Intensity.String(),
		Squats:             u(r.Squats),
		PushUps:            u(r.PushUps),
		Crunches:           u(r.Crunches),
		Turtles:            u(r.Turtles),
		Calfs:              u(r.Calfs),
		Repetitions:        u(r.Repetitions),
		AvgSpeed:           codec.FormatFloat(r.AvgSpeed),
		MaxSpeed:           codec.FormatFloat(r.MaxSpeed),
		ElevationGain:      codec.FormatDistance(r.ElevationGain),
		AvgWatts:           u(r.AvgWatts),
		MaxWatts:           u(r.MaxWatts),
		Gear:               r.Gear.String(),
		Route:              r.Route.String(),
		URL:                r.URL,
		Kcal:               u(r.Kcal),
		CoolDownTime:       codec.FormatDuration(r.CoolDownTimeSeconds),
		CoolDownDistance:   codec.FormatDistance(r.CoolDownDistanceMeters),
		Weight:             codec.FormatMass(r.Weight),
		Weather:            r.Weather.String(),
		WeatherTemperature: strconv.Itoa(r.WeatherTemperature),
		Where:              r.Where,
		BMI:                codec.FormatFloat(r.BMI),
		FatBurnt:           codec.FormatMassLoss(r.GramsOfFatBurnt),
		Source:             r.Source.String(),
	}
}

var singleLine = regexp.MustCompile(`^[^\r\n]*$`)

// parser accumulates field errors while a form is converted.
type parser struct {
	errs validation.Errors
}

func (p *parser) fail(key string, err error) {
	if err != nil {
		if _, seen := p.errs[key]; !seen {
			p.errs[key] = fieldError(err)
		}
	}
}

// detailError prints a FormatError without its field name, which
// validation.Errors already puts in front of every entry.
type detailError struct {
	*codec.FormatError
}

func (e detailError) Error() string {
	return e.Detail()
}

func (e detailError) Unwrap() error {
	return e.FormatError
}

func fieldError(err error) error {
	if fe, ok := err.(*codec.FormatError); ok {
		return detailError{fe}
	}
	return err
}

func (p *parser) duration(key, s string) uint {
	v, err := codec.ParseDuration(s, key)
	p.fail(key, err)
	return v
}

func (p *parser) distance(key, s string) uint {
	v, err := codec.ParseDistance(s, key)
	p.fail(key, err)
	return v
}

func (p *parser) unsigned(key, s string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		p.fail(key, &codec.FormatError{Field: key, Value: s, Expected: "unsigned integer", Empty: s == ""})
	}
	return uint(v)
}

func (p *parser) integer(key, s string) int {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		p.fail(key, &codec.FormatError{Field: key, Value: s, Expected: "integer", Empty: s == ""})
	}
	return int(v)
}

func (p *parser) number(key, s string) float32 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		p.fail(key, &codec.FormatError{Field: key, Value: s, Expected: "number", Empty: s == ""})
	}
	return float32(v)
}

func (p *parser) text(key, s string) string {
	p.fail(key, validation.Validate(s, validation.Match(singleLine).Error("must be a single line")))
	return s
}

func (p *parser) label(key, s string) model.Categorical {
	return model.Categorical(strings.TrimSpace(p.text(key, s)))
}

// Record parses every field into a new record. Failures are returned as
// validation.Errors keyed by field name.
func (f Form) Record() (*model.Record, error) {
	p := &parser{errs: validation.Errors{}}
	r := &model.Record{}

	year, month, day, err := codec.ParseDate(f.Date, "date")
	p.fail("date", err)
	if err == nil {
		p.fail("date", validation.Validate(month,
			validation.Required.Error("month must be between 1 and 12"),
			validation.Max(uint(12)).Error("month must be between 1 and 12")))
		p.fail("date", validation.Validate(day,
			validation.Required.Error("day must be between 1 and 31"),
			validation.Max(uint(31)).Error("day must be between 1 and 31")))
	}
	r.Year, r.Month, r.Day = year, month, day

	r.When = p.duration("when", f.When)
	p.fail("when", validation.Validate(r.When, validation.Max(uint(24*3600-1)).Error("must be a time of day")))
	r.Phase = p.integer("phase", f.Phase)
	r.Activity = p.label("activity", f.Activity)
	p.fail("activity", validation.Validate(string(r.Activity), validation.Required))
	r.Description = p.text("description", f.Description)
	r.Commute = f.Commute
	r.TotalTimeSeconds = p.duration("total_time", f.TotalTime)
	r.TotalDistanceMeters = p.distance("total_distance", f.TotalDistance)
	r.WarmUpTimeSeconds = p.duration("warm_up_time", f.WarmUpTime)
	r.WarmUpDistanceMeters = p.distance("warm_up_distance", f.WarmUpDistance)
	r.TimeSeconds = p.duration("time", f.Time)
	r.DistanceMeters = p.distance("distance", f.Distance)
	r.Intensity = p.label("intensity", f.Intensity)
	r.Squats = p.unsigned("squats", f.Squats)
	r.PushUps = p.unsigned("push_ups", f.PushUps)
	r.Crunches = p.unsigned("crunches", f.Crunches)
	r.Turtles = p.unsigned("turtles", f.Turtles)
	r.Calfs = p.unsigned("calfs", f.Calfs)
	r.Repetitions = p.unsigned("repetitions", f.Repetitions)
	r.AvgSpeed = p.number("avg_speed", f.AvgSpeed)
	r.MaxSpeed = p.number("max_speed", f.MaxSpeed)
	r.ElevationGain = p.distance("elevation_gain", f.ElevationGain)
	r.AvgWatts = p.unsigned("avg_watts", f.AvgWatts)
	r.MaxWatts = p.unsigned("max_watts", f.MaxWatts)
	r.Gear = p.label("gear", f.Gear)
	r.Route = p.label("route", f.Route)
	r.URL = strings.TrimSpace(p.text("url", f.URL))
	p.fail("url", validation.Validate(r.URL, is.URL))
	r.Kcal = p.unsigned("kcal", f.Kcal)
	r.CoolDownTimeSeconds = p.duration("cool_down_time", f.CoolDownTime)
	r.CoolDownDistanceMeters = p.distance("cool_down_distance", f.CoolDownDistance)
	weight, err := codec.ParseMass(f.Weight, "weight")
	p.fail("weight", err)
	r.Weight = weight
	r.Weather = p.label("weather", f.Weather)
	r.WeatherTemperature = p.integer("weather_temperature", f.WeatherTemperature)
	r.Where = p.text("where", f.Where)
	r.BMI = p.number("bmi", f.BMI)
	fat, err := codec.ParseMassLoss(f.FatBurnt, "fat_burnt")
	p.fail("fat_burnt", err)
	r.GramsOfFatBurnt = fat
	r.Source = p.label("source", f.Source)

	if err := p.errs.Filter(); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseAssignments applies key=value pairs to base. Keys are those returned
// by Keys; commute takes a boolean.
func ParseAssignments(base Form, assignments []string) (Form, error) {
	byKey := make(map[string]func(*Form) *string, len(fields))
	for _, fd := range fields {
		byKey[fd.key] = fd.ptr
	}
	errs := validation.Errors{}
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			errs[a] = fmt.Errorf("expected key=value")
			continue
		}
		if key == "commute" {
			v, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				errs[key] = fieldError(&codec.FormatError{Field: key, Value: value, Expected: "true or false", Empty: value == ""})
				continue
			}
			base.Commute = v
			continue
		}
		ptr, known := byKey[key]
		if !known {
			errs[key] = fmt.Errorf("unknown field, expected one of %s", strings.Join(sortedKeys(), ", "))
			continue
		}
		*ptr(&base) = value
	}
	if err := errs.Filter(); err != nil {
		return base, err
	}
	return base, nil
}

func sortedKeys() []string {
	keys := Keys()
	sort.Strings(keys)
	return keys
}
