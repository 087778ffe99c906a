package form

import (
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/etl76/etl/internal/codec"
	"github.com/etl76/etl/internal/model"
)

var today = time.Date(2020, time.May, 2, 18, 0, 0, 0, time.UTC)

func TestNewFormParses(t *testing.T) {
	r, err := New(today).Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r.Year != 2020 || r.Month != 5 || r.Day != 2 {
		t.Fatalf("unexpected date: %s", r.YearMonthDay())
	}
	if r.When != 45000 || r.Phase != 1 || r.Activity != "rest" || r.Intensity != "fartlek" || r.Source != "manual" {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	if r.Weight != 0 || r.GramsOfFatBurnt != 0 || r.TotalTimeSeconds != 0 {
		t.Fatalf("placeholders should parse to zero: %+v", r)
	}
}

func TestFromRecordRoundTrip(t *testing.T) {
	want := &model.Record{
		Year: 2021, Month: 12, Day: 31, When: 3661, Phase: -1, Activity: "bike",
		Description: "ride, easy", Commute: true, TotalTimeSeconds: 5400, TotalDistanceMeters: 40000,
		TimeSeconds: 5400, DistanceMeters: 40000, Intensity: "easy", PushUps: 20,
		AvgSpeed: 26.7, MaxSpeed: 48.1, ElevationGain: 420, AvgWatts: 180, MaxWatts: 600,
		Gear: "rockhopper", URL: "https://www.strava.com/activities/42", Kcal: 900,
		Weight: 92.5, Weather: "rain", WeatherTemperature: -4, Where: "Brno",
		BMI: 27.3, GramsOfFatBurnt: 40, Source: "strava:42",
	}
	got, err := FromRecord(want).Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip changed the record:\n%+v\nwant\n%+v", got, want)
	}
}

func TestRecordCollectsAllErrors(t *testing.T) {
	f := New(today)
	f.Date = "2020/5/2"
	f.TotalTime = "1h"
	f.Distance = "12km"
	f.Weight = "92.5"
	f.Kcal = "lots"
	f.FatBurnt = ""
	f.URL = "not a url"
	f.Description = "two\nlines"

	_, err := f.Record()
	var errs validation.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validation.Errors, got %T %v", err, err)
	}
	for _, key := range []string{"date", "total_time", "distance", "weight", "kcal", "fat_burnt", "url", "description"} {
		if errs[key] == nil {
			t.Fatalf("expected error for %s in %v", key, errs)
		}
	}
	if len(errs) != 8 {
		t.Fatalf("expected 8 errors, got %d: %v", len(errs), errs)
	}
	var fe *codec.FormatError
	if !errors.As(errs["fat_burnt"], &fe) || !fe.Empty {
		t.Fatalf("expected empty FormatError for fat_burnt, got %v", errs["fat_burnt"])
	}
}

func TestLongDurationsStayEditable(t *testing.T) {
	r := &model.Record{Year: 2020, Month: 7, Day: 1, Activity: "hike", Intensity: "easy",
		TotalTimeSeconds: 101 * 3600, TimeSeconds: 101*3600 + 61}
	f := FromRecord(r)
	if f.TotalTime != "101h00m00s" {
		t.Fatalf("unexpected rendering %q", f.TotalTime)
	}
	f, err := ParseAssignments(f, []string{"description=ultra"})
	if err != nil {
		t.Fatalf("ParseAssignments: %v", err)
	}
	got, err := f.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got.TotalTimeSeconds != 101*3600 || got.TimeSeconds != 101*3600+61 || got.Description != "ultra" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestErrorMessageNamesFieldOnce(t *testing.T) {
	f := New(today)
	f.TotalTime = "1h"
	_, err := f.Record()
	want := `total_time: invalid value "1h", expected HHhMMmSSs.`
	if err == nil || err.Error() != want {
		t.Fatalf("unexpected error %q, want %q", err, want)
	}
	var errs validation.Errors
	var fe *codec.FormatError
	if !errors.As(err, &errs) || !errors.As(errs["total_time"], &fe) || fe.Field != "total_time" {
		t.Fatalf("expected wrapped FormatError, got %v", err)
	}
}

func TestDateRange(t *testing.T) {
	for _, date := range []string{"2020/13/01", "2020/00/10", "2020/02/32", "2020/02/00"} {
		f := New(today)
		f.Date = date
		if _, err := f.Record(); err == nil {
			t.Fatalf("expected range error for %s", date)
		}
	}
}

func TestParseAssignments(t *testing.T) {
	f, err := ParseAssignments(New(today), []string{
		"activity=run",
		"distance=10000m",
		"time=00h50m00s",
		"Commute=true",
		"description=tempo, hills",
	})
	if err != nil {
		t.Fatalf("ParseAssignments: %v", err)
	}
	r, err := f.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r.Activity != "run" || r.DistanceMeters != 10000 || r.TimeSeconds != 3000 || !r.Commute || r.Description != "tempo, hills" {
		t.Fatalf("assignments not applied: %+v", r)
	}
}

func TestParseAssignmentsRejectsUnknown(t *testing.T) {
	_, err := ParseAssignments(New(today), []string{"colour=red", "commute=maybe", "novalue"})
	var errs validation.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validation.Errors, got %v", err)
	}
	if errs["colour"] == nil || errs["commute"] == nil || errs["novalue"] == nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestKeysCoverEveryField(t *testing.T) {
	keys := Keys()
	if len(keys) != 37 {
		t.Fatalf("expected 37 keys, got %d", len(keys))
	}
	if keys[5] != "commute" {
		t.Fatalf("commute should follow description, got %v", keys[:6])
	}
}
