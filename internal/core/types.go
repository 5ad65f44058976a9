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

// Package core implements the heating decision core: per-zone PID
// regulation, quota-based valve scheduling over clock-aligned observation
// periods, per-zone fault isolation and mode-dependent action aggregation.
// The package performs no I/O and spawns no goroutines; an external driver
// feeds it resolved inputs once per cycle and executes the actions it emits.
package core

import "time"

// Mode is the controller-wide operation mode.
type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeAllOn    Mode = "all_on"
	ModeAllOff   Mode = "all_off"
	ModeFlush    Mode = "flush"
	ModeCycle    Mode = "cycle"
	ModeAuto     Mode = "auto"
)

// ParseMode returns the Mode for s, or ok=false for an unknown value.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeDisabled, ModeAllOn, ModeAllOff, ModeFlush, ModeCycle, ModeAuto:
		return Mode(s), true
	}
	return "", false
}

// CircuitType distinguishes regular heating circuits from flush circuits,
// which may open opportunistically to capture residual DHW heat.
type CircuitType string

const (
	CircuitRegular CircuitType = "regular"
	CircuitFlush   CircuitType = "flush"
)

// Action is the per-cycle decision for one zone valve. StayOn and StayOff
// are distinct from "no action": the driver re-sends the current command to
// defeat dead-man timers in external relay hardware.
type Action string

const (
	ActionTurnOn  Action = "turn_on"
	ActionTurnOff Action = "turn_off"
	ActionStayOn  Action = "stay_on"
	ActionStayOff Action = "stay_off"
)

// IsOn reports whether the action leaves the valve open.
func (a Action) IsOn() bool {
	return a == ActionTurnOn || a == ActionStayOn
}

// Status is the fault-isolation state of a zone, and by aggregation of the
// whole controller.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusNormal       Status = "normal"
	StatusDegraded     Status = "degraded"
	StatusFailSafe     Status = "fail_safe"
)

// SummerMode is the boiler-side season selector. SummerAuto is the neutral
// setting that keeps any physical fallback heating path available.
type SummerMode string

const (
	SummerWinter SummerMode = "winter"
	SummerSummer SummerMode = "summer"
	SummerAuto   SummerMode = "auto"
)

// ValveOpenThreshold is the short-window open average above which a valve is
// considered physically open and its zone may request heat.
const ValveOpenThreshold = 0.85

// CycleModeSlots is the rotation length of cycle mode: slot 0 rests, slots
// 1..7 open one zone each.
const CycleModeSlots = 8

// TimingParams are the controller-wide scheduling parameters.
type TimingParams struct {
	// ObservationPeriod is the clock-aligned window over which a zone's
	// quota is tracked.
	ObservationPeriod time.Duration
	// MinRunTime is the shortest valve run worth starting.
	MinRunTime time.Duration
	// ValveOpenTime is the short look-back window for open detection.
	ValveOpenTime time.Duration
	// ClosingWarningDuration is the remaining quota below which a zone stops
	// requesting heat ahead of closing.
	ClosingWarningDuration time.Duration
	// WindowBlockThreshold is the open fraction of the window sensors above
	// which PID integration is paused.
	WindowBlockThreshold float64
	// FlushWindow is how long after a DHW cycle flush circuits may still
	// open.
	FlushWindow time.Duration
	// FailSafeTimeout is how long a zone may stay degraded without a single
	// successful update before it is forced into fail-safe.
	FailSafeTimeout time.Duration
	// LoopInterval is the driver cycle period.
	LoopInterval time.Duration
	// MaxCycleDelta caps the per-cycle time delta fed into the regulator and
	// filter, guarding against clock steps.
	MaxCycleDelta time.Duration
}

// DefaultTiming returns the stock timing parameters.
func DefaultTiming() TimingParams {
	return TimingParams{
		ObservationPeriod:      2 * time.Hour,
		MinRunTime:             9 * time.Minute,
		ValveOpenTime:          210 * time.Second,
		ClosingWarningDuration: 4 * time.Minute,
		WindowBlockThreshold:   0.05,
		FlushWindow:            10 * time.Minute,
		FailSafeTimeout:        time.Hour,
		LoopInterval:           time.Minute,
		MaxCycleDelta:          15 * time.Minute,
	}
}

// Default PID gains and setpoint bounds.
const (
	DefaultKp          = 50.0
	DefaultKi          = 0.05
	DefaultKd          = 0.0
	DefaultIntegralMin = 0.0
	DefaultIntegralMax = 100.0

	DefaultSetpointMin     = 16.0
	DefaultSetpointMax     = 28.0
	DefaultSetpointStep    = 0.5
	DefaultSetpointDefault = 21.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
