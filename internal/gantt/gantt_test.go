package gantt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseboard/internal/domain"
	"pulseboard/internal/gantt"
)

func delivery(id, projectID, start, end string) domain.Delivery {
	return domain.Delivery{
		ID:        id,
		ProjectID: projectID,
		Name:      id,
		StartDate: start,
		EndDate:   end,
		Stage:     "development",
	}
}

func TestComputeEmptyInput(t *testing.T) {
	layout := gantt.Compute(nil)
	assert.Empty(t, layout.Months)
	assert.Empty(t, layout.Lanes)
}

func TestComputeWindowExpandsOneMonthEachSide(t *testing.T) {
	layout := gantt.Compute([]domain.Delivery{
		delivery("d1", "p1", "2024-02-01", "2024-04-01"),
	})
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), layout.Start)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), layout.End)
}

func TestComputeSingleDeliveryPosition(t *testing.T) {
	// Window: 2024-01-01 .. 2024-05-01 (121 days). Delivery starts one
	// month in (31 days): left = 31/121*100.
	layout := gantt.Compute([]domain.Delivery{
		delivery("d1", "p1", "2024-02-01", "2024-04-01"),
	})
	require.Len(t, layout.Lanes, 1)
	require.Len(t, layout.Lanes[0].Bars, 1)
	bar := layout.Lanes[0].Bars[0]
	assert.InDelta(t, 31.0/121.0*100, bar.Left, 0.01)
	assert.InDelta(t, 60.0/121.0*100, bar.Width, 0.01)
}

func TestComputeMinimumBarWidth(t *testing.T) {
	layout := gantt.Compute([]domain.Delivery{
		delivery("long", "p1", "2024-01-01", "2024-12-31"),
		delivery("short", "p1", "2024-06-01", "2024-06-02"),
	})
	require.Len(t, layout.Lanes, 1)
	var short *gantt.Bar
	for i := range layout.Lanes[0].Bars {
		if layout.Lanes[0].Bars[i].DeliveryID == "short" {
			short = &layout.Lanes[0].Bars[i]
		}
	}
	require.NotNil(t, short)
	assert.Equal(t, gantt.MinBarWidthPercent, short.Width)
}

func TestComputeMonthMarkers(t *testing.T) {
	layout := gantt.Compute([]domain.Delivery{
		delivery("d1", "p1", "2024-02-01", "2024-03-15"),
	})
	// Window 2024-01-01 .. 2024-04-15: markers for Jan through Apr.
	require.Len(t, layout.Months, 4)
	assert.Equal(t, "Jan 2024", layout.Months[0].Label)
	assert.Equal(t, "Apr 2024", layout.Months[3].Label)
	assert.Equal(t, 0.0, layout.Months[0].Position)
	for i := 1; i < len(layout.Months); i++ {
		assert.Greater(t, layout.Months[i].Position, layout.Months[i-1].Position)
	}
	last := layout.Months[len(layout.Months)-1]
	assert.LessOrEqual(t, last.Position, 100.0)
}

func TestComputeLanesFollowDiscoveryOrder(t *testing.T) {
	layout := gantt.Compute([]domain.Delivery{
		delivery("d1", "zeta", "2024-01-01", "2024-02-01"),
		delivery("d2", "alpha", "2024-01-15", "2024-03-01"),
		delivery("d3", "zeta", "2024-02-01", "2024-04-01"),
	})
	require.Len(t, layout.Lanes, 2)
	assert.Equal(t, "zeta", layout.Lanes[0].ProjectID)
	assert.Equal(t, "alpha", layout.Lanes[1].ProjectID)
	assert.Len(t, layout.Lanes[0].Bars, 2)
}

func TestComputeBarsChronologicalWithinLane(t *testing.T) {
	layout := gantt.Compute([]domain.Delivery{
		delivery("later", "p1", "2024-03-01", "2024-04-01"),
		delivery("earlier", "p1", "2024-01-01", "2024-02-01"),
	})
	require.Len(t, layout.Lanes, 1)
	bars := layout.Lanes[0].Bars
	require.Len(t, bars, 2)
	assert.Equal(t, "earlier", bars[0].DeliveryID)
	assert.Equal(t, "later", bars[1].DeliveryID)
}

func TestComputeDeterministic(t *testing.T) {
	input := []domain.Delivery{
		delivery("d1", "p1", "2024-01-01", "2024-02-01"),
		delivery("d2", "p2", "2024-02-01", "2024-03-01"),
	}
	first := gantt.Compute(input)
	second := gantt.Compute(input)
	assert.Equal(t, first, second)
}
