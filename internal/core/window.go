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

import "time"

// ObservationStart aligns now to the start of its observation period.
// Boundaries are multiples of period from local midnight (a 2-hour period
// aligns to 00:00, 02:00, ...), so the final period of a day may be
// truncated at the next midnight. A non-positive period falls back to the
// default.
func ObservationStart(now time.Time, period time.Duration) time.Time {
	if period <= 0 {
		period = DefaultTiming().ObservationPeriod
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := now.Sub(midnight)
	return midnight.Add(offset - offset%period)
}

// Elapsed returns the seconds from start to now, never negative.
func Elapsed(now, start time.Time) float64 {
	d := now.Sub(start).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// ValveOpenWindow returns the short look-back range used to detect whether a
// valve is physically open.
func ValveOpenWindow(now time.Time, valveOpenTime time.Duration) (time.Time, time.Time) {
	return now.Add(-valveOpenTime), now
}
