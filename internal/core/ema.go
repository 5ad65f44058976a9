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

// Smooth applies an exponential moving average to a raw temperature reading.
//
// The smoothing factor is alpha = dt / (tau + dt): a larger time constant tau
// means a slower, smoother response. tau <= 0 disables filtering and returns
// the raw reading. dt <= 0 returns the previous value unchanged so that a
// clock anomaly can neither divide by zero nor drag the filter backwards.
func Smooth(raw, previous, dt, tau float64) float64 {
	if tau <= 0 {
		return raw
	}
	if dt <= 0 {
		return previous
	}
	alpha := dt / (tau + dt)
	return alpha*raw + (1-alpha)*previous
}
