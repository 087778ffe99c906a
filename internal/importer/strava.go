package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/etl76/etl/internal/model"
)

// StravaActivityURL prefixes a Strava activity id.
const StravaActivityURL = "https://www.strava.com/activities/"

const stravaStartLayout = "02.01.2006 15:04:05"

// Strava converts an ActivityList.csv produced by the entorb/strava export
// tools.
func Strava(r io.Reader) ([]*model.Record, error) {
	t, err := newTable("strava", r, "id", "type", "start_date_local", "name", "distance", "elapsed_time")
	if err != nil {
		return nil, err
	}
	var out []*model.Record
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		rec, err := stravaRecord(t)
		if err != nil {
			return nil, t.fail(err)
		}
		out = append(out, rec)
	}
}

func stravaRecord(t *table) (*model.Record, error) {
	rec := newRecord()
	start, err := time.Parse(stravaStartLayout, t.get("start_date_local"))
	if err != nil {
		return nil, fmt.Errorf("start_date_local: %w", err)
	}
	setStart(rec, start)

	rec.Activity = model.Categorical(strings.ToLower(t.get("type")))
	rec.Description = strings.ReplaceAll(t.get("name"), ";", ":")

	distance, err := t.number("distance")
	if err != nil {
		return nil, err
	}
	elapsed, err := t.number("elapsed_time")
	if err != nil {
		return nil, err
	}
	rec.DistanceMeters = truncate(distance)
	rec.TotalDistanceMeters = rec.DistanceMeters
	rec.TimeSeconds = truncate(elapsed)
	rec.TotalTimeSeconds = rec.TimeSeconds

	avg, err := t.number("km/h")
	if err != nil {
		return nil, err
	}
	maxSpeed, err := t.number("x_max_km/h")
	if err != nil {
		return nil, err
	}
	rec.AvgSpeed = float32(avg)
	rec.MaxSpeed = float32(maxSpeed)

	elevation, err := t.number("total_elevation_gain")
	if err != nil {
		return nil, err
	}
	rec.ElevationGain = truncate(elevation)

	watts, err := t.number("average_watts")
	if err != nil {
		return nil, err
	}
	rec.AvgWatts = truncate(watts)

	kilojoules, err := t.number("kilojoules")
	if err != nil {
		return nil, err
	}
	rec.Kcal = truncate(kilojoules / 4.184)

	if c := t.get("commute"); c != "" {
		commute, err := strconv.ParseBool(c)
		if err != nil {
			return nil, fmt.Errorf("commute: invalid value %q", c)
		}
		rec.Commute = commute
	}

	rec.Gear = model.Categorical(strings.ReplaceAll(strings.ToLower(t.get("x_gear_name")), " ", "_"))
	id := t.get("id")
	rec.URL = StravaActivityURL + id
	rec.Source = model.Categorical("strava:" + id)
	return rec, nil
}
