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

// EvalContext is the read-only controller-wide context a zone decision may
// depend on. It carries no references to other zones, only aggregates.
type EvalContext struct {
	DHWActive bool
	// FlushEnabled allows flush circuits to open opportunistically.
	FlushEnabled bool
	// FlushActive is true while DHW runs or within the post-DHW flush
	// window.
	FlushActive bool
	// AnyRegularValveOn reports whether any regular-circuit valve is open
	// after this cycle's regular-zone decisions.
	AnyRegularValveOn bool
	// PeriodElapsed is the seconds elapsed in the current observation
	// period.
	PeriodElapsed float64
}

// EvaluateZone decides the valve action for one zone. It is pure: identical
// zone state and context always produce the identical action.
//
// Decision order, first match wins: fault isolation, disabled, flush
// priority, end-of-period freeze, quota scheduling, quota met.
func EvaluateZone(z *ZoneRuntime, ctx EvalContext, timing TimingParams) Action {
	switch z.status {
	case StatusFailSafe:
		// Forced off, regardless of quota state.
		return offAction(z.valveOn)
	case StatusInitializing:
		return ActionStayOff
	}

	if !z.enabled {
		return offAction(z.valveOn)
	}

	if z.cfg.Circuit == CircuitFlush && ctx.FlushEnabled && ctx.FlushActive && !ctx.AnyRegularValveOn {
		return onAction(z.valveOn)
	}

	// Freeze near the period boundary: anything started now would be
	// shorter than a worthwhile run.
	remainingPeriod := timing.ObservationPeriod.Seconds() - ctx.PeriodElapsed
	if remainingPeriod < timing.MinRunTime.Seconds() {
		if z.valveOn {
			return ActionStayOn
		}
		return ActionStayOff
	}

	if z.usedDuration < z.requestedDuration {
		if z.valveOn {
			// Re-assert to defeat actuator dead-man timers.
			return ActionStayOn
		}

		remainingQuota := z.requestedDuration - z.usedDuration
		if remainingQuota < timing.MinRunTime.Seconds() {
			return ActionStayOff
		}

		if ctx.DHWActive && z.cfg.Circuit == CircuitRegular {
			// DHW has priority; circuits already on were handled above and
			// keep circulating.
			return ActionStayOff
		}

		return ActionTurnOn
	}

	return offAction(z.valveOn)
}

// ShouldRequestHeat reports whether a zone contributes to the aggregated
// boiler heat request. It requires the valve commanded on and confirmed
// physically open, and enough remaining quota that the zone is not about to
// close.
func ShouldRequestHeat(z *ZoneRuntime, timing TimingParams) bool {
	if z.status == StatusFailSafe || z.status == StatusInitializing {
		return false
	}
	if !z.enabled || !z.valveOn {
		return false
	}
	if z.openAvg < ValveOpenThreshold {
		return false
	}
	remainingQuota := z.requestedDuration - z.usedDuration
	return remainingQuota >= timing.ClosingWarningDuration.Seconds()
}

func onAction(valveOn bool) Action {
	if valveOn {
		return ActionStayOn
	}
	return ActionTurnOn
}

func offAction(valveOn bool) Action {
	if valveOn {
		return ActionTurnOff
	}
	return ActionStayOff
}
