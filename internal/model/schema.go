package model

import (
	"strconv"
	"strings"

	"github.com/etl76/etl/internal/codec"
)

// Separator joins header names and cells of a data line.
const Separator = ", "

// Kind is the storage kind of a column.
type Kind int

const (
	KindUint Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
	KindCategorical
	// KindTimeOfDay is written as seconds since midnight. Files from the
	// import scripts also carry HH:MM:SS or HHhMMmSSs.
	KindTimeOfDay
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "unsigned integer"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "0 or 1"
	case KindText:
		return "text"
	case KindCategorical:
		return "label"
	case KindTimeOfDay:
		return "seconds, HH:MM:SS or HHhMMmSSs"
	default:
		return "unknown"
	}
}

// Textual reports whether values of this kind go through CSV quoting.
func (k Kind) Textual() bool {
	return k == KindText || k == KindCategorical
}

// Column describes one CSV column and binds it to a Record field.
type Column struct {
	Name    string
	Aliases []string // names used by older files
	Kind    Kind
	// Optional columns were added after the original 28-column layout and
	// read as zero values when a file does not have them.
	Optional bool

	format func(*Record) string
	parse  func(*Record, string) error
}

// Format renders the field value without CSV quoting.
func (c Column) Format(r *Record) string {
	return c.format(r)
}

// Cell renders the field value as it is written to a data line.
func (c Column) Cell(r *Record) string {
	v := c.format(r)
	if c.Kind.Textual() {
		return QuoteField(v)
	}
	return v
}

// Parse stores raw into the bound field. Numeric cells are trimmed and an
// empty numeric cell reads as zero.
func (c Column) Parse(r *Record, raw string) error {
	return c.parse(r, raw)
}

// Categorical returns the bound label of a categorical column.
func (c Column) Categorical(r *Record) (Categorical, bool) {
	if c.Kind != KindCategorical {
		return "", false
	}
	return Categorical(c.format(r)), true
}

func (c Column) invalid(raw string) error {
	return &codec.FormatError{Field: c.Name, Value: raw, Expected: c.Kind.String(), Empty: raw == ""}
}

func (c Column) optional() Column {
	c.Optional = true
	return c
}

func (c Column) alias(names ...string) Column {
	c.Aliases = append(c.Aliases, names...)
	return c
}

func uintColumn(name string, field func(*Record) *uint) Column {
	c := Column{Name: name, Kind: KindUint}
	c.format = func(r *Record) string {
		return strconv.FormatUint(uint64(*field(r)), 10)
	}
	c.parse = func(r *Record, raw string) error {
		s := strings.TrimSpace(raw)
		if s == "" {
			*field(r) = 0
			return nil
		}
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return c.invalid(raw)
		}
		*field(r) = uint(v)
		return nil
	}
	return c
}

func timeOfDayColumn(name string, field func(*Record) *uint) Column {
	c := Column{Name: name, Kind: KindTimeOfDay}
	c.format = func(r *Record) string {
		return strconv.FormatUint(uint64(*field(r)), 10)
	}
	c.parse = func(r *Record, raw string) error {
		s := strings.TrimSpace(raw)
		var v uint
		var err error
		switch {
		case s == "":
		case strings.Contains(s, ":"):
			v, err = codec.ParseClock(s, name)
		case strings.Contains(s, "h"):
			v, err = codec.ParseDuration(s, name)
		default:
			var n uint64
			n, err = strconv.ParseUint(s, 10, 32)
			v = uint(n)
		}
		if err != nil || v >= 24*3600 {
			return c.invalid(raw)
		}
		*field(r) = v
		return nil
	}
	return c
}

func intColumn(name string, field func(*Record) *int) Column {
	c := Column{Name: name, Kind: KindInt}
	c.format = func(r *Record) string {
		return strconv.Itoa(*field(r))
	}
	c.parse = func(r *Record, raw string) error {
		s := strings.TrimSpace(raw)
		if s == "" {
			*field(r) = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return c.invalid(raw)
		}
		*field(r) = int(v)
		return nil
	}
	return c
}

func floatColumn(name string, field func(*Record) *float32) Column {
	c := Column{Name: name, Kind: KindFloat}
	c.format = func(r *Record) string {
		return codec.FormatFloat(*field(r))
	}
	c.parse = func(r *Record, raw string) error {
		s := strings.TrimSpace(raw)
		if s == "" {
			*field(r) = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return c.invalid(raw)
		}
		*field(r) = float32(v)
		return nil
	}
	return c
}

func boolColumn(name string, field func(*Record) *bool) Column {
	c := Column{Name: name, Kind: KindBool}
	c.format = func(r *Record) string {
		if *field(r) {
			return "1"
		}
		return "0"
	}
	c.parse = func(r *Record, raw string) error {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true":
			*field(r) = true
		case "0", "false", "":
			*field(r) = false
		default:
			return c.invalid(raw)
		}
		return nil
	}
	return c
}

func textColumn(name string, field func(*Record) *string) Column {
	c := Column{Name: name, Kind: KindText}
	c.format = func(r *Record) string {
		return *field(r)
	}
	c.parse = func(r *Record, raw string) error {
		*field(r) = raw
		return nil
	}
	return c
}

func categoricalColumn(name string, field func(*Record) *Categorical) Column {
	c := Column{Name: name, Kind: KindCategorical}
	c.format = func(r *Record) string {
		return string(*field(r))
	}
	c.parse = func(r *Record, raw string) error {
		*field(r) = Categorical(raw)
		return nil
	}
	return c
}

// Columns is the canonical schema in file order.
var Columns = []Column{
	uintColumn("year", func(r *Record) *uint { return &r.Year }),
	uintColumn("month", func(r *Record) *uint { return &r.Month }),
	uintColumn("day", func(r *Record) *uint { return &r.Day }),
	timeOfDayColumn("when", func(r *Record) *uint { return &r.When }).optional(),
	intColumn("phase", func(r *Record) *int { return &r.Phase }),
	categoricalColumn("activity", func(r *Record) *Categorical { return &r.Activity }).alias("activity_type"),
	textColumn("description", func(r *Record) *string { return &r.Description }),
	boolColumn("commute", func(r *Record) *bool { return &r.Commute }),
	uintColumn("total_time_seconds", func(r *Record) *uint { return &r.TotalTimeSeconds }),
	uintColumn("total_distance_meters", func(r *Record) *uint { return &r.TotalDistanceMeters }),
	uintColumn("warm_up_time_seconds", func(r *Record) *uint { return &r.WarmUpTimeSeconds }),
	uintColumn("warm_up_distance_meters", func(r *Record) *uint { return &r.WarmUpDistanceMeters }),
	uintColumn("time_seconds", func(r *Record) *uint { return &r.TimeSeconds }),
	uintColumn("distance_meters", func(r *Record) *uint { return &r.DistanceMeters }),
	categoricalColumn("intensity", func(r *Record) *Categorical { return &r.Intensity }),
	uintColumn("squats", func(r *Record) *uint { return &r.Squats }).optional(),
	uintColumn("push_ups", func(r *Record) *uint { return &r.PushUps }).optional(),
	uintColumn("crunches", func(r *Record) *uint { return &r.Crunches }).optional(),
	uintColumn("turtles", func(r *Record) *uint { return &r.Turtles }).optional(),
	uintColumn("calfs", func(r *Record) *uint { return &r.Calfs }).optional(),
	uintColumn("repetitions", func(r *Record) *uint { return &r.Repetitions }),
	floatColumn("avg_speed", func(r *Record) *float32 { return &r.AvgSpeed }).optional(),
	floatColumn("max_speed", func(r *Record) *float32 { return &r.MaxSpeed }).optional(),
	uintColumn("elevation_gain", func(r *Record) *uint { return &r.ElevationGain }).optional(),
	uintColumn("avg_watts", func(r *Record) *uint { return &r.AvgWatts }),
	uintColumn("max_watts", func(r *Record) *uint { return &r.MaxWatts }),
	categoricalColumn("gear", func(r *Record) *Categorical { return &r.Gear }),
	categoricalColumn("route", func(r *Record) *Categorical { return &r.Route }),
	textColumn("url", func(r *Record) *string { return &r.URL }).alias("gpx_url"),
	uintColumn("kcal", func(r *Record) *uint { return &r.Kcal }).alias("calories"),
	uintColumn("cool_down_time_seconds", func(r *Record) *uint { return &r.CoolDownTimeSeconds }),
	uintColumn("cool_down_distance_meters", func(r *Record) *uint { return &r.CoolDownDistanceMeters }),
	floatColumn("weight", func(r *Record) *float32 { return &r.Weight }),
	categoricalColumn("weather", func(r *Record) *Categorical { return &r.Weather }),
	intColumn("weather_temperature", func(r *Record) *int { return &r.WeatherTemperature }),
	textColumn("where", func(r *Record) *string { return &r.Where }),
	floatColumn("bmi", func(r *Record) *float32 { return &r.BMI }).optional(),
	uintColumn("grams_of_fat_burnt", func(r *Record) *uint { return &r.GramsOfFatBurnt }),
	categoricalColumn("source", func(r *Record) *Categorical { return &r.Source }).optional(),
}

// ColumnNames returns the canonical header names in order.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// Header returns the header line without its line break.
func Header() string {
	return strings.Join(ColumnNames(), Separator)
}

// QuoteField wraps a non-empty value that contains a comma in double quotes,
// unless it already starts with one. Embedded quotes and line breaks are left
// as they are.
func QuoteField(s string) string {
	if s == "" || s[0] == '"' || !strings.Contains(s, ",") {
		return s
	}
	return `"` + s + `"`
}
