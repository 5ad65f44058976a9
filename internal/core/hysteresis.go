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

import "math"

// Display quantization for published temperatures.
const (
	DisplayPrecision = 0.1
	// HysteresisMargin is the extra distance past a quantization boundary a
	// reading must travel before the displayed value changes.
	HysteresisMargin = 0.03
)

// RoundWithHysteresis quantizes raw to the display precision without
// flickering at boundaries: a value oscillating around 20.05 keeps showing
// 20.0 until it reaches 20.08, and 20.1 until it drops back to 20.02.
// prevDisplay is the previously displayed value; pass it as NaN on the
// first call.
func RoundWithHysteresis(raw, prevDisplay float64) float64 {
	target := math.Round(raw/DisplayPrecision) * DisplayPrecision

	if math.IsNaN(prevDisplay) {
		return target
	}
	if math.Abs(target-prevDisplay) < DisplayPrecision/2 {
		return prevDisplay
	}

	if target > prevDisplay {
		boundary := prevDisplay + DisplayPrecision/2
		if raw >= boundary+HysteresisMargin {
			return target
		}
		return prevDisplay
	}
	boundary := prevDisplay - DisplayPrecision/2
	if raw <= boundary-HysteresisMargin {
		return target
	}
	return prevDisplay
}
