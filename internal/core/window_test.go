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

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservationStartAlignsToMidnightMultiples(t *testing.T) {
	period := 2 * time.Hour

	now := time.Date(2026, 3, 14, 13, 37, 42, 0, time.UTC)
	start := ObservationStart(now, period)
	assert.Equal(t, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), start)

	// Exactly on a boundary is its own start.
	boundary := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, boundary, ObservationStart(boundary, period))

	// Just after midnight belongs to the first period of the day.
	early := time.Date(2026, 3, 14, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), ObservationStart(early, period))
}

func TestObservationStartOddPeriodTruncatesAtMidnight(t *testing.T) {
	// A 7h period gives boundaries at 00, 07, 14, 21; the 21:00 period is
	// cut short by the next midnight.
	period := 7 * time.Hour
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC), ObservationStart(now, period))
}

func TestObservationStartNonPositivePeriodUsesDefault(t *testing.T) {
	now := time.Date(2026, 3, 14, 13, 0, 0, 1, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), ObservationStart(now, 0))
}

func TestElapsedNeverNegative(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 90.0, Elapsed(now.Add(90*time.Second), now))
	assert.Equal(t, 0.0, Elapsed(now.Add(-time.Minute), now))
}

func TestValveOpenWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	start, end := ValveOpenWindow(now, 210*time.Second)
	assert.Equal(t, now.Add(-210*time.Second), start)
	assert.Equal(t, now, end)
}
