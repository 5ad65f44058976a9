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

// PIDState holds the regulator terms after the most recent update. The
// integral accumulator and duty cycle survive paused cycles unchanged; the
// error is recomputed every cycle for display.
type PIDState struct {
	Error     float64
	LastError float64
	PTerm     float64
	ITerm     float64
	DTerm     float64
	Integral  float64
	DutyCycle float64
}

// PIDSnapshot is the persisted part of the regulator state.
type PIDSnapshot struct {
	Integral  float64 `json:"integral"`
	LastError float64 `json:"last_error"`
	DutyCycle float64 `json:"duty_cycle"`
}

// Regulator is a per-zone PID controller producing a 0-100 duty cycle from
// the temperature error. Anti-windup is two-fold: the integral accumulator
// is clamped to configured bounds after every update, and Pause skips
// accumulation entirely during known-invalid conditions.
type Regulator struct {
	kp, ki, kd               float64
	integralMin, integralMax float64
	state                    PIDState
}

// NewRegulator returns a regulator with the given gains and integral
// accumulator bounds.
func NewRegulator(kp, ki, kd, integralMin, integralMax float64) *Regulator {
	if integralMax < integralMin {
		integralMin, integralMax = integralMax, integralMin
	}
	return &Regulator{
		kp:          kp,
		ki:          ki,
		kd:          kd,
		integralMin: integralMin,
		integralMax: integralMax,
	}
}

// Update advances the regulator by dt seconds and returns the new duty
// cycle. The integral accumulates error*dt and is clamped to
// [integralMin, integralMax]; the output is clamped to [0, 100].
//
// dt <= 0 is a clock anomaly: the accumulator, last error and duty cycle are
// left untouched and only the displayed error is refreshed.
func (r *Regulator) Update(setpoint, current, dt float64) float64 {
	err := setpoint - current
	r.state.Error = err

	if dt <= 0 {
		return r.state.DutyCycle
	}

	r.state.PTerm = r.kp * err

	r.state.Integral = clamp(r.state.Integral+err*dt, r.integralMin, r.integralMax)
	r.state.ITerm = r.ki * r.state.Integral

	if r.kd != 0 {
		r.state.DTerm = r.kd * (err - r.state.LastError) / dt
	} else {
		r.state.DTerm = 0
	}
	r.state.LastError = err

	r.state.DutyCycle = clamp(r.state.PTerm+r.state.ITerm+r.state.DTerm, 0, 100)
	return r.state.DutyCycle
}

// Pause recomputes the error for display without accumulating. The
// accumulator and duty cycle keep their prior values; the last error is
// still advanced so that a later resume does not see a stale derivative
// kick.
func (r *Regulator) Pause(setpoint, current float64) {
	err := setpoint - current
	r.state.Error = err
	r.state.LastError = err
}

// Reset clears all regulator state.
func (r *Regulator) Reset() {
	r.state = PIDState{}
}

// State returns the terms of the most recent update.
func (r *Regulator) State() PIDState {
	return r.state
}

// Snapshot returns the persisted part of the state.
func (r *Regulator) Snapshot() PIDSnapshot {
	return PIDSnapshot{
		Integral:  r.state.Integral,
		LastError: r.state.LastError,
		DutyCycle: r.state.DutyCycle,
	}
}

// Restore loads a persisted snapshot, clamping the values back into their
// invariant ranges in case the stored copy predates a config change.
func (r *Regulator) Restore(s PIDSnapshot) {
	r.state.Integral = clamp(s.Integral, r.integralMin, r.integralMax)
	r.state.ITerm = r.ki * r.state.Integral
	r.state.LastError = s.LastError
	r.state.DutyCycle = clamp(s.DutyCycle, 0, 100)
}
