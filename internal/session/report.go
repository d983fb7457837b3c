package session

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

type ItemStatus string

const (
	StatusCompleted ItemStatus = "completed"
	StatusSkipped   ItemStatus = "skipped"
	StatusPartial   ItemStatus = "partial"
	StatusPending   ItemStatus = "pending"
)

type MeditationStatus string

const (
	MeditationCompleted  MeditationStatus = "completed"
	MeditationPartial    MeditationStatus = "partial"
	MeditationSkipped    MeditationStatus = "skipped"
	MeditationNotPlanned MeditationStatus = "not_planned"
)

type ItemReport struct {
	Name   string     `json:"name"`
	Status ItemStatus `json:"status"`
}

// Minutes decodes from a JSON number or a numeric string. Anything else,
// including NaN and infinities, decodes as 0.
type Minutes float64

func (m *Minutes) UnmarshalJSON(data []byte) error {
	*m = 0

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	} else {
		raw = string(data)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*m = Minutes(v)
	return nil
}

type MeditationReport struct {
	PlannedMinutes Minutes          `json:"planned_minutes"`
	SpentMinutes   Minutes          `json:"spent_minutes"`
	Status         MeditationStatus `json:"status,omitempty"`
}

// Report is the activity log a client submits for one day. It is stored
// verbatim with the session record, after the meditation status is derived.
type Report struct {
	Physical   []ItemReport      `json:"physical,omitempty"`
	Yoga       []ItemReport      `json:"yoga,omitempty"`
	Meditation *MeditationReport `json:"meditation,omitempty"`

	// kept for history only, never scored
	MeditationItems []ItemReport `json:"meditation_items,omitempty"`
	TimeMinutes     Minutes      `json:"time_minutes,omitempty"`
}

// UnmarshalJSON decodes each section on its own. A malformed section is
// dropped and counts as empty instead of failing the whole report.
func (r *Report) UnmarshalJSON(data []byte) error {
	*r = Report{}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		log.Debugf("report is not an object, treating as empty: %s", err)
		return nil
	}

	r.Physical = decodeItems("physical", sections["physical"])
	r.Yoga = decodeItems("yoga", sections["yoga"])
	r.MeditationItems = decodeItems("meditation_items", sections["meditation_items"])

	if raw, ok := sections["meditation"]; ok && !isNull(raw) {
		var m MeditationReport
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Debugf("drop malformed meditation section: %s", err)
		} else {
			m.Status = MeditationStatus(strings.ToLower(strings.TrimSpace(string(m.Status))))
			r.Meditation = &m
		}
	}

	if raw, ok := sections["time_minutes"]; ok {
		_ = r.TimeMinutes.UnmarshalJSON(raw)
	}

	return nil
}

func decodeItems(section string, raw json.RawMessage) []ItemReport {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	var items []ItemReport
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Debugf("drop malformed %s section: %s", section, err)
		return nil
	}
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].Name)
		items[i].Status = ItemStatus(strings.ToLower(strings.TrimSpace(string(items[i].Status))))
	}
	return items
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func countStatus(items []ItemReport, status ItemStatus) int {
	count := 0
	for _, item := range items {
		if item.Status == status {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	c := r
	c.Physical = append([]ItemReport(nil), r.Physical...)
	c.Yoga = append([]ItemReport(nil), r.Yoga...)
	c.MeditationItems = append([]ItemReport(nil), r.MeditationItems...)
	if r.Meditation != nil {
		m := *r.Meditation
		c.Meditation = &m
	}
	return c
}
