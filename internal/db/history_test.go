/*
 * Copyright (c) 2025. Anton Starikov -- All Rights Reserved
 *
 * This file is part of MZUFHC project.
 *
 * MZUFHC is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package db

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueries(t *testing.T) *Queries {
	t.Helper()
	q := OpenDatabase(":memory:")
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestStateAverageTimeWeighted(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	end := start.Add(200 * time.Second)

	// On before the range, off at +50s, on again at +150s:
	// on for 50s + 50s of 200s total.
	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", true, start.Add(-time.Hour)))
	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", false, start.Add(50*time.Second)))
	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", true, start.Add(150*time.Second)))

	avg, err := q.StateAverage(ctx, "valve/living", start, end)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, avg, 1e-9)
}

func TestStateAverageInitialStateOnly(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", true, start.Add(-time.Hour)))

	avg, err := q.StateAverage(ctx, "valve/living", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1.0, avg)
}

func TestStateAverageNoInitialCountsLeadingTimeOff(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// First ever event 75s into a 100s range.
	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", true, start.Add(75*time.Second)))

	avg, err := q.StateAverage(ctx, "valve/living", start, start.Add(100*time.Second))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, avg, 1e-9)
}

func TestStateAverageNoHistory(t *testing.T) {
	q := testQueries(t)
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	_, err := q.StateAverage(context.Background(), "valve/ghost", start, start.Add(time.Hour))
	assert.True(t, errors.Is(err, ErrNoHistory))
}

func TestStateAverageEmptyRange(t *testing.T) {
	q := testQueries(t)
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	avg, err := q.StateAverage(context.Background(), "valve/living", start, start)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestWindowOpenAverageTakesWorstSensor(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Second)

	// Sensor 0: open for the last 30s. Sensor 1: never recorded.
	require.NoError(t, q.InsertStateEvent(ctx, "window/living/0", false, start.Add(-time.Hour)))
	require.NoError(t, q.InsertStateEvent(ctx, "window/living/0", true, start.Add(70*time.Second)))

	avg, err := q.WindowOpenAverage(ctx, []string{"window/living/0", "window/living/1"}, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, avg, 1e-9)
}

func TestWindowOpenAverageNoSensors(t *testing.T) {
	q := testQueries(t)

	avg, err := q.WindowOpenAverage(context.Background(), nil, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestPruneKeepsNewestOlderEventPerEntity(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", false, cutoff.Add(-3*time.Hour)))
	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", true, cutoff.Add(-2*time.Hour)))
	require.NoError(t, q.InsertStateEvent(ctx, "valve/living", false, cutoff.Add(time.Hour)))

	require.NoError(t, q.PruneStateEvents(ctx, cutoff))

	// The -2h event survives as the initial state for post-cutoff ranges.
	avg, err := q.StateAverage(ctx, "valve/living", cutoff, cutoff.Add(2*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, avg, 1e-9)

	var count int
	require.NoError(t, q.db.Get(&count, `SELECT COUNT(*) FROM state_events WHERE entity = ?`, "valve/living"))
	assert.Equal(t, 2, count)
}

func TestZoneStateRoundTrip(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()

	row := ZoneStateRow{
		ZoneName:  "living",
		Integral:  42.5,
		LastError: 0.7,
		DutyCycle: 55.0,
		Setpoint:  20.5,
		Enabled:   true,
		Status:    "normal",
	}
	require.NoError(t, q.UpsertZoneState(ctx, row))

	got, err := q.GetZoneState(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, row, got)

	row.Setpoint = 19.0
	require.NoError(t, q.UpsertZoneState(ctx, row))
	got, err = q.GetZoneState(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, 19.0, got.Setpoint)
}

func TestControllerValueRoundTrip(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()

	require.NoError(t, q.UpsertControllerValue(ctx, "mode", "auto"))
	require.NoError(t, q.UpsertControllerValue(ctx, "mode", "all_off"))

	v, err := q.GetControllerValue(ctx, "mode")
	require.NoError(t, err)
	assert.Equal(t, "all_off", v)

	_, err = q.GetControllerValue(ctx, "missing")
	assert.Error(t, err)
}
