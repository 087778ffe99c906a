package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/etl76/etl/internal/model"
)

// Concept2Options fills the fields a season export does not carry.
type Concept2Options struct {
	Gear      string // label of the rowing machine
	ProfileID string // log.concept2.com profile used to build entry URLs
}

// DefaultConcept2Gear is used when no gear is configured.
const DefaultConcept2Gear = "my_concept2_e"

const concept2DateLayout = "2006-01-02 15:04:05"

// Concept2 converts a season CSV exported from the Concept2 online logbook.
func Concept2(r io.Reader, opts Concept2Options) ([]*model.Record, error) {
	if opts.Gear == "" {
		opts.Gear = DefaultConcept2Gear
	}
	t, err := newTable("concept2", r, "ID", "Date", "Work Time (Seconds)", "Work Distance")
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
		rec, err := concept2Record(t, opts)
		if err != nil {
			return nil, t.fail(err)
		}
		out = append(out, rec)
	}
}

func concept2Record(t *table, opts Concept2Options) (*model.Record, error) {
	rec := newRecord()
	start, err := time.Parse(concept2DateLayout, t.get("Date"))
	if err != nil {
		return nil, fmt.Errorf("Date: %w", err)
	}
	setStart(rec, start)
	rec.Activity = "rowing"

	var desc strings.Builder
	if v := t.get("Stroke Rate/Cadence"); v != "" {
		desc.WriteString(" @" + v)
	}
	if v := t.get("Pace"); v != "" {
		desc.WriteString(" " + v + "/500m")
	}
	if v := t.get("Drag Factor"); v != "" {
		desc.WriteString(" DF" + v)
	}
	if v := t.get("Comments"); v != "" {
		desc.WriteString(" (" + v + ")")
	}
	rec.Description = strings.TrimSpace(desc.String())

	distance, err := t.number("Work Distance")
	if err != nil {
		return nil, err
	}
	seconds, err := t.number("Work Time (Seconds)")
	if err != nil {
		return nil, err
	}
	rec.DistanceMeters = truncate(distance)
	rec.TotalDistanceMeters = rec.DistanceMeters
	rec.TimeSeconds = truncate(seconds)
	rec.TotalTimeSeconds = rec.TimeSeconds
	if rec.TimeSeconds > 0 {
		rec.AvgSpeed = float32(float64(rec.DistanceMeters) / float64(rec.TimeSeconds) * 3.6)
	}
	// The export has no maximum speed.
	rec.MaxSpeed = rec.AvgSpeed

	watts, err := t.number("Avg Watts")
	if err != nil {
		return nil, err
	}
	rec.AvgWatts = truncate(watts)
	kcal, err := t.number("Total Cal")
	if err != nil {
		return nil, err
	}
	rec.Kcal = truncate(kcal)

	if t.get("Ranked") != "" {
		rec.Intensity = "rank"
	}
	rec.Gear = model.Categorical(opts.Gear)
	id := t.get("ID")
	if opts.ProfileID != "" {
		rec.URL = fmt.Sprintf("https://log.concept2.com/profile/%s/log/%s", opts.ProfileID, id)
	}
	rec.Source = model.Categorical("concept2:" + id)
	return rec, nil
}
