// Package gantt maps delivery date ranges onto normalized horizontal
// positions for timeline rendering. Layout is pure math over the input
// deliveries; rendering is the caller's problem.
package gantt

import (
	"sort"
	"time"

	"pulseboard/internal/domain"
)

// MinBarWidthPercent keeps very short deliveries visible. The floor can
// push a bar past its nominal end date; that overflow is an accepted
// trade-off, not a bug.
const MinBarWidthPercent = 2.0

// Month is a marker on the timeline axis.
type Month struct {
	Label string `json:"label"`
	// Position is the marker's left offset as a percentage of the window.
	Position float64 `json:"position"`
}

// Bar is one delivery positioned on the shared timeline.
type Bar struct {
	DeliveryID string  `json:"delivery_id"`
	Name       string  `json:"name"`
	Stage      string  `json:"stage"`
	Progress   float64 `json:"progress"`
	Left       float64 `json:"left"`
	Width      float64 `json:"width"`
}

// Lane groups one project's bars as a horizontal row.
type Lane struct {
	ProjectID string `json:"project_id"`
	Bars      []Bar  `json:"bars"`
}

// Layout is the computed timeline.
type Layout struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Months []Month   `json:"months"`
	Lanes  []Lane    `json:"lanes"`
}

// Compute lays deliveries out on a shared window spanning the earliest
// start to the latest end, expanded by one calendar month on each side
// for visual margin. Lanes follow the discovery order of project ids;
// bars within a lane are sorted chronologically. An empty input yields
// an empty layout; a degenerate zero-length window yields full-width
// bars.
func Compute(deliveries []domain.Delivery) Layout {
	if len(deliveries) == 0 {
		return Layout{}
	}

	earliest, latest := window(deliveries)
	earliest = earliest.AddDate(0, -1, 0)
	latest = latest.AddDate(0, 1, 0)
	total := latest.Sub(earliest)

	layout := Layout{Start: earliest, End: latest}
	for cur := earliest; !cur.After(latest); cur = cur.AddDate(0, 1, 0) {
		layout.Months = append(layout.Months, Month{
			Label:    cur.Format("Jan 2006"),
			Position: position(cur, earliest, total),
		})
	}

	laneIndex := map[string]int{}
	for _, d := range deliveries {
		idx, ok := laneIndex[d.ProjectID]
		if !ok {
			idx = len(layout.Lanes)
			laneIndex[d.ProjectID] = idx
			layout.Lanes = append(layout.Lanes, Lane{ProjectID: d.ProjectID})
		}
		layout.Lanes[idx].Bars = append(layout.Lanes[idx].Bars, bar(d, earliest, total))
	}
	for i := range layout.Lanes {
		bars := layout.Lanes[i].Bars
		sort.SliceStable(bars, func(a, b int) bool { return bars[a].Left < bars[b].Left })
	}
	return layout
}

func window(deliveries []domain.Delivery) (time.Time, time.Time) {
	earliest := parseDate(deliveries[0].StartDate)
	latest := parseDate(deliveries[0].EndDate)
	for _, d := range deliveries[1:] {
		if start := parseDate(d.StartDate); start.Before(earliest) {
			earliest = start
		}
		if end := parseDate(d.EndDate); end.After(latest) {
			latest = end
		}
	}
	return earliest, latest
}

func bar(d domain.Delivery, earliest time.Time, total time.Duration) Bar {
	b := Bar{
		DeliveryID: d.ID,
		Name:       d.Name,
		Stage:      d.Stage,
		Progress:   d.Progress,
	}
	if total == 0 {
		b.Left = 0
		b.Width = 100
		return b
	}
	start := parseDate(d.StartDate)
	end := parseDate(d.EndDate)
	b.Left = position(start, earliest, total)
	width := float64(end.Sub(start)) / float64(total) * 100
	if width < MinBarWidthPercent {
		width = MinBarWidthPercent
	}
	b.Width = width
	return b
}

func position(at, earliest time.Time, total time.Duration) float64 {
	if total == 0 {
		return 0
	}
	return float64(at.Sub(earliest)) / float64(total) * 100
}

// parseDate accepts date-only or RFC3339 strings; anything else maps to
// the zero time, which still lays out without panicking.
func parseDate(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
