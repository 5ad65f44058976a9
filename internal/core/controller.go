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

// Actions is the per-cycle output bundle. HeatRequest and SummerMode are
// present only when they differ from the previously committed value;
// absence means "leave unchanged".
type Actions struct {
	Valves      map[string]Action
	HeatRequest *bool
	SummerMode  *SummerMode
}

// ControllerSnapshot is the persisted global state plus all zone snapshots.
type ControllerSnapshot struct {
	Mode         Mode                    `json:"mode"`
	FlushEnabled bool                    `json:"flush_enabled"`
	Zones        map[string]ZoneSnapshot `json:"zones"`
}

// Controller owns all zone runtimes and the global mode. Evaluate is
// side-effect-free; the driver applies the returned actions to the outside
// world and then calls Commit so the next cycle sees the committed valve
// and boiler state.
type Controller struct {
	timing TimingParams

	mode         Mode
	flushEnabled bool
	dhwActive    bool
	flushUntil   time.Time

	observationStart time.Time
	periodElapsed    float64

	lastHeatRequest *bool
	lastSummerMode  *SummerMode

	zones map[string]*ZoneRuntime
	order []string // stable zone order: insertion order
}

// NewController returns an empty controller in auto mode.
func NewController(timing TimingParams) *Controller {
	return &Controller{
		timing: timing,
		mode:   ModeAuto,
		zones:  make(map[string]*ZoneRuntime),
	}
}

// Timing returns the controller-wide scheduling parameters.
func (c *Controller) Timing() TimingParams { return c.timing }

// AddZone creates and registers a zone runtime. Zones keep the order they
// were added in; cycle mode and auto-mode flush ordering depend on it.
func (c *Controller) AddZone(cfg ZoneConfig) *ZoneRuntime {
	z := NewZoneRuntime(cfg)
	c.zones[cfg.ID] = z
	c.order = append(c.order, cfg.ID)
	return z
}

// RemoveZone destroys a zone runtime.
func (c *Controller) RemoveZone(id string) {
	if _, ok := c.zones[id]; !ok {
		return
	}
	delete(c.zones, id)
	for i, zid := range c.order {
		if zid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Zone returns the runtime for id, or nil.
func (c *Controller) Zone(id string) *ZoneRuntime { return c.zones[id] }

// ZoneIDs returns the zone identifiers in stable order.
func (c *Controller) ZoneIDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Mode returns the current operation mode.
func (c *Controller) Mode() Mode { return c.mode }

// SetMode switches the operation mode.
func (c *Controller) SetMode(m Mode) { c.mode = m }

// FlushEnabled reports whether flush circuits may open opportunistically.
func (c *Controller) FlushEnabled() bool { return c.flushEnabled }

// SetFlushEnabled toggles opportunistic flushing.
func (c *Controller) SetFlushEnabled(v bool) { c.flushEnabled = v }

// DHWActive reports whether a domestic hot water cycle is running.
func (c *Controller) DHWActive() bool { return c.dhwActive }

// SetDHWActive records the DHW state. A falling edge opens the post-DHW
// flush window.
func (c *Controller) SetDHWActive(active bool, now time.Time) {
	if c.dhwActive && !active {
		c.flushUntil = now.Add(c.timing.FlushWindow)
	}
	c.dhwActive = active
}

// FlushActive reports whether flush circuits have a reason to open: DHW is
// running or ended within the flush window.
func (c *Controller) FlushActive(now time.Time) bool {
	return c.dhwActive || now.Before(c.flushUntil)
}

// BeginCycle aligns the observation window to now and returns its start and
// the elapsed seconds. The driver calls it before the zone update stages.
func (c *Controller) BeginCycle(now time.Time) (time.Time, float64) {
	c.observationStart = ObservationStart(now, c.timing.ObservationPeriod)
	c.periodElapsed = Elapsed(now, c.observationStart)
	return c.observationStart, c.periodElapsed
}

// ObservationWindow returns the last BeginCycle result.
func (c *Controller) ObservationWindow() (time.Time, float64) {
	return c.observationStart, c.periodElapsed
}

// Stage wrappers injecting controller-wide parameters, so the driver never
// touches zone internals directly.

// UpdateZoneTemperature runs stage 1 for one zone.
func (c *Controller) UpdateZoneTemperature(id string, raw *float64, dt float64) {
	if z := c.zones[id]; z != nil {
		z.UpdateTemperature(raw, dt)
	}
}

// UpdateZonePID runs stage 2 for one zone under the current mode.
func (c *Controller) UpdateZonePID(id string, dt float64) {
	if z := c.zones[id]; z != nil {
		z.UpdatePID(dt, c.mode)
	}
}

// UpdateZoneHistorical runs stage 3 for one zone with the averages the
// driver queried.
func (c *Controller) UpdateZoneHistorical(
	id string,
	periodAvg, openAvg, windowOpenAvg float64,
	windowCurrentlyOpen bool,
) {
	if z := c.zones[id]; z != nil {
		z.UpdateHistorical(periodAvg, openAvg, windowOpenAvg, windowCurrentlyOpen, c.periodElapsed, c.timing)
	}
}

// UpdateZoneFailureState runs stage 4 for one zone.
func (c *Controller) UpdateZoneFailureState(id string, now time.Time, tempUnavailable, queryFailed bool) {
	if z := c.zones[id]; z != nil {
		z.UpdateFailureState(now, tempUnavailable, queryFailed, c.timing.FailSafeTimeout)
	}
}

// SetZoneSetpoint sets a zone's target temperature, clamped to its bounds.
func (c *Controller) SetZoneSetpoint(id string, v float64) bool {
	z := c.zones[id]
	if z == nil {
		return false
	}
	z.SetSetpoint(v)
	return true
}

// SetZoneEnabled enables or disables a zone.
func (c *Controller) SetZoneEnabled(id string, enabled bool) bool {
	z := c.zones[id]
	if z == nil {
		return false
	}
	z.SetEnabled(enabled)
	return true
}

// SetZonePreset applies a named preset setpoint to a zone.
func (c *Controller) SetZonePreset(id, preset string) bool {
	z := c.zones[id]
	if z == nil {
		return false
	}
	return z.SetPreset(preset)
}

// Evaluate dispatches on the operation mode and aggregates all zone
// decisions into one action bundle. It mutates nothing: calling it twice
// with unchanged state and the same now yields identical actions.
func (c *Controller) Evaluate(now time.Time) Actions {
	actions := Actions{Valves: make(map[string]Action, len(c.order))}

	var heat *bool
	var summer *SummerMode

	switch c.mode {
	case ModeDisabled:
		// No valve actions; boiler state left unchanged.
		return actions

	case ModeAllOn:
		for _, id := range c.order {
			z := c.zones[id]
			if z.status == StatusFailSafe {
				actions.Valves[id] = offAction(z.valveOn)
				continue
			}
			actions.Valves[id] = onAction(z.valveOn)
		}
		heat = boolPtr(true)
		summer = summerPtr(SummerWinter)

	case ModeAllOff:
		for _, id := range c.order {
			actions.Valves[id] = offAction(c.zones[id].valveOn)
		}
		heat = boolPtr(false)
		summer = summerPtr(SummerSummer)

	case ModeFlush:
		// Circulation only: all valves open, no heat.
		for _, id := range c.order {
			z := c.zones[id]
			if z.status == StatusFailSafe {
				actions.Valves[id] = offAction(z.valveOn)
				continue
			}
			actions.Valves[id] = onAction(z.valveOn)
		}
		heat = boolPtr(false)
		summer = summerPtr(SummerSummer)

	case ModeCycle:
		active := c.cycleActiveZone(now)
		for _, id := range c.order {
			z := c.zones[id]
			if z.status != StatusFailSafe && id == active {
				actions.Valves[id] = onAction(z.valveOn)
			} else {
				actions.Valves[id] = offAction(z.valveOn)
			}
		}
		heat = boolPtr(false)
		summer = summerPtr(SummerSummer)

	case ModeAuto:
		ctx := EvalContext{
			DHWActive:     c.dhwActive,
			FlushEnabled:  c.flushEnabled,
			FlushActive:   c.FlushActive(now),
			PeriodElapsed: c.periodElapsed,
		}

		// Regular circuits first: flush decisions depend on whether any
		// regular valve ends up open this cycle.
		anyRegularOn := false
		for _, id := range c.order {
			z := c.zones[id]
			if z.cfg.Circuit != CircuitRegular {
				continue
			}
			a := EvaluateZone(z, ctx, c.timing)
			actions.Valves[id] = a
			if a.IsOn() {
				anyRegularOn = true
			}
		}
		ctx.AnyRegularValveOn = anyRegularOn
		for _, id := range c.order {
			z := c.zones[id]
			if z.cfg.Circuit != CircuitFlush {
				continue
			}
			actions.Valves[id] = EvaluateZone(z, ctx, c.timing)
		}

		request := false
		for _, id := range c.order {
			if ShouldRequestHeat(c.zones[id], c.timing) {
				request = true
				break
			}
		}
		heat = boolPtr(request)
		if request {
			summer = summerPtr(SummerWinter)
		} else {
			summer = summerPtr(SummerSummer)
		}
	}

	// Safety override: while any zone is isolated in fail-safe, never force
	// summer so a physical fallback heating path stays available.
	if summer != nil && c.anyFailSafe() {
		summer = summerPtr(SummerAuto)
	}

	// Minimal-action contract: emit boiler fields only when they change.
	if heat != nil && (c.lastHeatRequest == nil || *c.lastHeatRequest != *heat) {
		actions.HeatRequest = heat
	}
	if summer != nil && (c.lastSummerMode == nil || *c.lastSummerMode != *summer) {
		actions.SummerMode = summer
	}

	return actions
}

// Commit applies an executed action bundle back onto the controller state.
// The driver calls it after the actuator commands went out.
func (c *Controller) Commit(actions Actions, now time.Time) {
	for id, a := range actions.Valves {
		if z := c.zones[id]; z != nil {
			z.commitValve(a.IsOn(), now)
		}
	}
	if actions.HeatRequest != nil {
		v := *actions.HeatRequest
		c.lastHeatRequest = &v
	}
	if actions.SummerMode != nil {
		v := *actions.SummerMode
		c.lastSummerMode = &v
	}
}

// cycleActiveZone returns the zone id that cycle mode opens for now's slot,
// or "" during the rest slot.
func (c *Controller) cycleActiveZone(now time.Time) string {
	slot := now.Hour() % CycleModeSlots
	if slot == 0 || len(c.order) == 0 {
		return ""
	}
	return c.order[(slot-1)%len(c.order)]
}

// Status aggregates zone health: normal iff every zone is normal, fail_safe
// iff every zone is fail_safe, degraded otherwise. The controller never
// reports fail_safe while any single zone is healthy.
func (c *Controller) Status() Status {
	if len(c.zones) == 0 {
		return StatusNormal
	}
	allNormal, allFailSafe := true, true
	for _, z := range c.zones {
		if z.status != StatusNormal {
			allNormal = false
		}
		if z.status != StatusFailSafe {
			allFailSafe = false
		}
	}
	switch {
	case allNormal:
		return StatusNormal
	case allFailSafe:
		return StatusFailSafe
	default:
		return StatusDegraded
	}
}

func (c *Controller) anyFailSafe() bool {
	for _, z := range c.zones {
		if z.status == StatusFailSafe {
			return true
		}
	}
	return false
}

// Snapshot returns the persisted global and per-zone state.
func (c *Controller) Snapshot() ControllerSnapshot {
	s := ControllerSnapshot{
		Mode:         c.mode,
		FlushEnabled: c.flushEnabled,
		Zones:        make(map[string]ZoneSnapshot, len(c.zones)),
	}
	for id, z := range c.zones {
		s.Zones[id] = z.Snapshot()
	}
	return s
}

// Restore loads a persisted snapshot. Snapshots for zones that no longer
// exist are dropped; zones without a snapshot keep their fresh state.
func (c *Controller) Restore(s ControllerSnapshot) {
	if m, ok := ParseMode(string(s.Mode)); ok {
		c.mode = m
	}
	c.flushEnabled = s.FlushEnabled
	for id, zs := range s.Zones {
		if z := c.zones[id]; z != nil {
			z.Restore(zs)
		}
	}
}

func boolPtr(v bool) *bool               { return &v }
func summerPtr(v SummerMode) *SummerMode { return &v }
