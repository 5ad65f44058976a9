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

// ZoneConfig is the static per-zone configuration. It is immutable after
// load; reconfiguration replaces it wholesale.
type ZoneConfig struct {
	ID      string
	Circuit CircuitType

	SetpointMin     float64
	SetpointMax     float64
	SetpointStep    float64
	SetpointDefault float64

	Kp          float64
	Ki          float64
	Kd          float64
	IntegralMin float64
	IntegralMax float64

	// FilterTimeConstant is the EMA time constant in seconds; 0 disables
	// temperature smoothing.
	FilterTimeConstant float64

	// Presets maps preset names to setpoints.
	Presets map[string]float64
}

// FillDefaults replaces zero-valued fields with the stock parameters.
func (c *ZoneConfig) FillDefaults() {
	if c.Circuit == "" {
		c.Circuit = CircuitRegular
	}
	if c.SetpointMin == 0 && c.SetpointMax == 0 {
		c.SetpointMin = DefaultSetpointMin
		c.SetpointMax = DefaultSetpointMax
	}
	if c.SetpointStep == 0 {
		c.SetpointStep = DefaultSetpointStep
	}
	if c.SetpointDefault == 0 {
		c.SetpointDefault = DefaultSetpointDefault
	}
	if c.Kp == 0 && c.Ki == 0 && c.Kd == 0 {
		c.Kp = DefaultKp
		c.Ki = DefaultKi
		c.Kd = DefaultKd
	}
	if c.IntegralMin == 0 && c.IntegralMax == 0 {
		c.IntegralMin = DefaultIntegralMin
		c.IntegralMax = DefaultIntegralMax
	}
}

// ZoneSnapshot is the persisted part of a zone's runtime state.
type ZoneSnapshot struct {
	PID      PIDSnapshot `json:"pid"`
	Setpoint float64     `json:"setpoint"`
	Enabled  bool        `json:"enabled"`
	Status   Status      `json:"status"`
}

// ZoneRuntime owns one zone's mutable state: filtered temperature, PID
// state, valve state, historical averages and fault status. All fields
// depend only on this zone's own inputs plus read-only controller context;
// no zone ever reads another zone's runtime.
//
// The external driver invokes the four update stages once per cycle, in
// order: UpdateTemperature, UpdatePID, UpdateHistorical, UpdateFailureState.
type ZoneRuntime struct {
	cfg ZoneConfig
	pid *Regulator

	filtered        *float64 // nil until the first valid reading
	tempUnavailable bool     // this cycle only

	setpoint float64
	enabled  bool

	valveOn      bool
	valveOnSince time.Time

	periodAvg          float64 // valve-on fraction since observation start
	openAvg            float64 // valve-on fraction over the open-detection window
	windowOpenAvg      float64 // window-sensor open fraction over the block window
	windowRecentlyOpen bool

	usedDuration      float64 // seconds of valve-on this period
	requestedDuration float64 // seconds the duty cycle asks for

	status         Status
	lastGoodUpdate time.Time
}

// NewZoneRuntime creates a zone in the initializing state with the default
// setpoint.
func NewZoneRuntime(cfg ZoneConfig) *ZoneRuntime {
	cfg.FillDefaults()
	return &ZoneRuntime{
		cfg:      cfg,
		pid:      NewRegulator(cfg.Kp, cfg.Ki, cfg.Kd, cfg.IntegralMin, cfg.IntegralMax),
		setpoint: clamp(cfg.SetpointDefault, cfg.SetpointMin, cfg.SetpointMax),
		enabled:  true,
		status:   StatusInitializing,
	}
}

// Config returns the zone's static configuration.
func (z *ZoneRuntime) Config() ZoneConfig { return z.cfg }

// Status returns the fault-isolation state.
func (z *ZoneRuntime) Status() Status { return z.status }

// Setpoint returns the current target temperature.
func (z *ZoneRuntime) Setpoint() float64 { return z.setpoint }

// SetSetpoint sets the target temperature, clamped to the configured
// bounds. An out-of-range request is a config invariant violation and is
// resolved by clamping, never by erroring.
func (z *ZoneRuntime) SetSetpoint(v float64) {
	z.setpoint = clamp(v, z.cfg.SetpointMin, z.cfg.SetpointMax)
}

// SetPreset sets the setpoint from the configured preset table. Unknown
// presets are ignored.
func (z *ZoneRuntime) SetPreset(name string) bool {
	v, ok := z.cfg.Presets[name]
	if !ok {
		return false
	}
	z.SetSetpoint(v)
	return true
}

// Enabled reports whether the zone takes part in scheduling.
func (z *ZoneRuntime) Enabled() bool { return z.enabled }

// SetEnabled enables or disables the zone.
func (z *ZoneRuntime) SetEnabled(enabled bool) { z.enabled = enabled }

// ValveOn reports the last committed valve command.
func (z *ZoneRuntime) ValveOn() bool { return z.valveOn }

// ValveOnSince returns when the valve was last commanded open; zero when it
// is closed.
func (z *ZoneRuntime) ValveOnSince() time.Time { return z.valveOnSince }

// Temperature returns the filtered temperature, if a reading has ever been
// seen.
func (z *ZoneRuntime) Temperature() (float64, bool) {
	if z.filtered == nil {
		return 0, false
	}
	return *z.filtered, true
}

// PIDState returns the regulator terms for diagnostics.
func (z *ZoneRuntime) PIDState() PIDState { return z.pid.State() }

// DutyCycle returns the current duty cycle in percent.
func (z *ZoneRuntime) DutyCycle() float64 { return z.pid.State().DutyCycle }

// UsedDuration returns the seconds of valve-on time consumed this period.
func (z *ZoneRuntime) UsedDuration() float64 { return z.usedDuration }

// RequestedDuration returns the seconds of valve-on time the duty cycle
// requests for the full period.
func (z *ZoneRuntime) RequestedDuration() float64 { return z.requestedDuration }

// OpenAverage returns the valve-on fraction over the open-detection window.
func (z *ZoneRuntime) OpenAverage() float64 { return z.openAvg }

// WindowBlocked reports whether a window has been open recently enough to
// pause PID integration.
func (z *ZoneRuntime) WindowBlocked() bool { return z.windowRecentlyOpen }

// UpdateTemperature is stage 1: apply the EMA filter to a raw reading. A
// nil raw marks the temperature unavailable for this cycle and leaves the
// filtered value unchanged. The first valid reading seeds the filter.
func (z *ZoneRuntime) UpdateTemperature(raw *float64, dt float64) {
	if raw == nil {
		z.tempUnavailable = true
		return
	}
	z.tempUnavailable = false
	if z.filtered == nil {
		v := *raw
		z.filtered = &v
		return
	}
	v := Smooth(*raw, *z.filtered, dt, z.cfg.FilterTimeConstant)
	z.filtered = &v
}

// UpdatePID is stage 2: advance the regulator, or pause it when integration
// must not occur. Pausing happens when the temperature is unavailable this
// cycle, the mode is not auto, the zone is disabled, or a window has been
// open within the blocking interval. A paused regulator still refreshes its
// displayed error when a filtered temperature exists.
func (z *ZoneRuntime) UpdatePID(dt float64, mode Mode) {
	paused := z.tempUnavailable || z.filtered == nil ||
		mode != ModeAuto || !z.enabled || z.windowRecentlyOpen

	if paused {
		if z.filtered != nil {
			z.pid.Pause(z.setpoint, *z.filtered)
		}
		return
	}
	z.pid.Update(z.setpoint, *z.filtered, dt)
}

// UpdateHistorical is stage 3: store the externally queried averages and
// derive the scheduling durations. usedDuration covers the elapsed part of
// the period; requestedDuration always refers to the full period.
func (z *ZoneRuntime) UpdateHistorical(
	periodAvg, openAvg, windowOpenAvg float64,
	windowCurrentlyOpen bool,
	periodElapsed float64,
	timing TimingParams,
) {
	z.periodAvg = clamp(periodAvg, 0, 1)
	z.openAvg = clamp(openAvg, 0, 1)
	z.windowOpenAvg = clamp(windowOpenAvg, 0, 1)
	z.windowRecentlyOpen = windowCurrentlyOpen || z.windowOpenAvg > timing.WindowBlockThreshold

	z.usedDuration = z.periodAvg * periodElapsed
	z.requestedDuration = z.DutyCycle() / 100.0 * timing.ObservationPeriod.Seconds()
}

// UpdateFailureState is stage 4: drive the fault state machine from this
// zone's own inputs. A cycle is successful when the temperature was read
// and all historical queries succeeded; the controller never forces a
// transition based on other zones.
func (z *ZoneRuntime) UpdateFailureState(now time.Time, tempUnavailable, queryFailed bool, failSafeTimeout time.Duration) {
	ok := !tempUnavailable && !queryFailed

	switch z.status {
	case StatusInitializing:
		if ok {
			z.status = StatusNormal
			z.lastGoodUpdate = now
		}
	case StatusNormal:
		if ok {
			z.lastGoodUpdate = now
		} else {
			z.status = StatusDegraded
		}
	case StatusDegraded:
		switch {
		case ok:
			z.status = StatusNormal
			z.lastGoodUpdate = now
		case z.lastGoodUpdate.IsZero():
			// No successful update on record (restored state); start the
			// clock from here instead of escalating immediately.
			z.lastGoodUpdate = now
		case now.Sub(z.lastGoodUpdate) > failSafeTimeout:
			z.status = StatusFailSafe
		}
	case StatusFailSafe:
		if ok {
			z.status = StatusNormal
			z.lastGoodUpdate = now
		}
	}
}

// commitValve records the committed valve command.
func (z *ZoneRuntime) commitValve(on bool, now time.Time) {
	switch {
	case on && !z.valveOn:
		z.valveOn = true
		z.valveOnSince = now
	case !on:
		z.valveOn = false
		z.valveOnSince = time.Time{}
	}
}

// Snapshot returns the persisted part of the runtime state.
func (z *ZoneRuntime) Snapshot() ZoneSnapshot {
	return ZoneSnapshot{
		PID:      z.pid.Snapshot(),
		Setpoint: z.setpoint,
		Enabled:  z.enabled,
		Status:   z.status,
	}
}

// Restore loads a persisted snapshot. The setpoint is re-clamped against the
// current config; a persisted fail_safe or degraded status is kept so a
// crash cannot silently clear an isolation.
func (z *ZoneRuntime) Restore(s ZoneSnapshot) {
	z.pid.Restore(s.PID)
	z.SetSetpoint(s.Setpoint)
	z.enabled = s.Enabled
	switch s.Status {
	case StatusNormal, StatusDegraded, StatusFailSafe:
		z.status = s.Status
	default:
		z.status = StatusInitializing
	}
}
