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
	"github.com/stretchr/testify/require"
)

// newTestController returns a controller with n healthy regular zones named
// z1..zN, each with quota available.
func newTestController(t *testing.T, n int, now time.Time) *Controller {
	t.Helper()
	c := NewController(DefaultTiming())
	for i := 0; i < n; i++ {
		id := "z" + string(rune('1'+i))
		c.AddZone(ZoneConfig{ID: id, Circuit: CircuitRegular, Kp: 50})
		c.UpdateZoneTemperature(id, f64(20.0), 60)
	}
	c.BeginCycle(now)
	for _, id := range c.ZoneIDs() {
		c.UpdateZonePID(id, 60)
		c.UpdateZoneHistorical(id, 0.2, 0.9, 0, false)
		c.UpdateZoneFailureState(id, now, false, false)
		require.Equal(t, StatusNormal, c.Zone(id).Status())
	}
	return c
}

// failZone drives one zone into fail-safe through the state machine.
func failZone(c *Controller, id string, now time.Time) {
	c.UpdateZoneFailureState(id, now, true, false)
	c.UpdateZoneFailureState(id, now.Add(2*c.Timing().FailSafeTimeout), true, false)
}

func TestControllerEvaluateIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 3, now)

	first := c.Evaluate(now)
	second := c.Evaluate(now)
	assert.Equal(t, first, second)
}

func TestControllerAutoModeOpensZonesUnderQuota(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)

	actions := c.Evaluate(now)
	assert.Equal(t, ActionTurnOn, actions.Valves["z1"])
	assert.Equal(t, ActionTurnOn, actions.Valves["z2"])

	// With the valves committed open and the open average past the
	// threshold, the next cycle requests heat.
	c.Commit(actions, now)
	actions = c.Evaluate(now.Add(time.Minute))
	require.NotNil(t, actions.HeatRequest)
	assert.True(t, *actions.HeatRequest)
	require.NotNil(t, actions.SummerMode)
	assert.Equal(t, SummerWinter, *actions.SummerMode)
}

func TestControllerMinimalActionContract(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)
	c.SetMode(ModeAllOff)

	actions := c.Evaluate(now)
	require.NotNil(t, actions.HeatRequest)
	require.NotNil(t, actions.SummerMode)
	c.Commit(actions, now)

	// Unchanged state: boiler fields are omitted the next cycle.
	actions = c.Evaluate(now.Add(time.Minute))
	assert.Nil(t, actions.HeatRequest)
	assert.Nil(t, actions.SummerMode)
}

func TestControllerStatusAggregation(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

	c := newTestController(t, 7, now)
	assert.Equal(t, StatusNormal, c.Status())

	// Six of seven zones isolated: controller is degraded, never fail-safe,
	// while a single zone still works.
	for _, id := range c.ZoneIDs()[:6] {
		failZone(c, id, now)
	}
	assert.Equal(t, StatusDegraded, c.Status())

	failZone(c, c.ZoneIDs()[6], now)
	assert.Equal(t, StatusFailSafe, c.Status())
}

func TestControllerEmptyStatusIsNormal(t *testing.T) {
	c := NewController(DefaultTiming())
	assert.Equal(t, StatusNormal, c.Status())
}

func TestControllerFailSafeForcesNeutralSummerMode(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 3, now)
	failZone(c, "z2", now)

	actions := c.Evaluate(now)
	require.NotNil(t, actions.SummerMode)
	assert.Equal(t, SummerAuto, *actions.SummerMode)

	// The isolated zone is forced off; the healthy ones still schedule.
	assert.Equal(t, ActionStayOff, actions.Valves["z2"])
	assert.Equal(t, ActionTurnOn, actions.Valves["z1"])
	assert.Equal(t, ActionTurnOn, actions.Valves["z3"])
}

func TestControllerZoneIsolation(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)
	before := c.Zone("z2").Snapshot()

	// A cold snap and a sensor failure in z1 leave z2 untouched.
	c.UpdateZoneTemperature("z1", f64(5.0), 60)
	c.UpdateZonePID("z1", 60)
	failZone(c, "z1", now)

	assert.Equal(t, before, c.Zone("z2").Snapshot())
	assert.Equal(t, StatusNormal, c.Zone("z2").Status())
}

func TestControllerDisabledModeEmitsNothing(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)
	c.SetMode(ModeDisabled)

	actions := c.Evaluate(now)
	assert.Empty(t, actions.Valves)
	assert.Nil(t, actions.HeatRequest)
	assert.Nil(t, actions.SummerMode)
}

func TestControllerAllOnMode(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 3, now)
	c.SetMode(ModeAllOn)
	failZone(c, "z3", now)

	actions := c.Evaluate(now)
	assert.Equal(t, ActionTurnOn, actions.Valves["z1"])
	assert.Equal(t, ActionTurnOn, actions.Valves["z2"])
	assert.Equal(t, ActionStayOff, actions.Valves["z3"])
	require.NotNil(t, actions.HeatRequest)
	assert.True(t, *actions.HeatRequest)
}

func TestControllerAllOffMode(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)

	// Two auto cycles first: valves open, heat requested.
	c.Commit(c.Evaluate(now), now)
	c.Commit(c.Evaluate(now.Add(time.Minute)), now.Add(time.Minute))

	c.SetMode(ModeAllOff)
	actions := c.Evaluate(now.Add(2 * time.Minute))
	assert.Equal(t, ActionTurnOff, actions.Valves["z1"])
	assert.Equal(t, ActionTurnOff, actions.Valves["z2"])
	require.NotNil(t, actions.HeatRequest)
	assert.False(t, *actions.HeatRequest)
	require.NotNil(t, actions.SummerMode)
	assert.Equal(t, SummerSummer, *actions.SummerMode)
}

func TestControllerCycleModeRotation(t *testing.T) {
	base := time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC)
	c := newTestController(t, 7, base)
	c.SetMode(ModeCycle)

	// Slot 3 (11:00, 11 % 8 = 3) opens the third zone, all others closed.
	now := time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC)
	actions := c.Evaluate(now)
	for _, id := range c.ZoneIDs() {
		want := ActionStayOff
		if id == "z3" {
			want = ActionTurnOn
		}
		assert.Equal(t, want, actions.Valves[id], "zone %s", id)
	}
	require.NotNil(t, actions.HeatRequest)
	assert.False(t, *actions.HeatRequest)

	// Slot 0 is the rest slot: everything closed.
	actions = c.Evaluate(time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC))
	for _, id := range c.ZoneIDs() {
		assert.Equal(t, ActionStayOff, actions.Valves[id], "zone %s", id)
	}
}

func TestControllerFlushModeCirculatesWithoutHeat(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)
	c.SetMode(ModeFlush)

	actions := c.Evaluate(now)
	assert.Equal(t, ActionTurnOn, actions.Valves["z1"])
	assert.Equal(t, ActionTurnOn, actions.Valves["z2"])
	require.NotNil(t, actions.HeatRequest)
	assert.False(t, *actions.HeatRequest)
}

func TestControllerAutoModeFlushAfterDHW(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := NewController(DefaultTiming())
	c.AddZone(ZoneConfig{ID: "towel", Circuit: CircuitFlush, Kp: 50})
	c.SetFlushEnabled(true)
	c.BeginCycle(now)
	c.UpdateZoneTemperature("towel", f64(22.0), 60)
	c.UpdateZonePID("towel", 60)
	c.UpdateZoneHistorical("towel", 0, 0, 0, false)
	c.UpdateZoneFailureState("towel", now, false, false)

	// DHW running: flush circuit opens to capture the heat.
	c.SetDHWActive(true, now)
	actions := c.Evaluate(now)
	assert.Equal(t, ActionTurnOn, actions.Valves["towel"])

	// DHW done: the flush window keeps it open for a while.
	c.SetDHWActive(false, now.Add(5*time.Minute))
	actions = c.Evaluate(now.Add(6 * time.Minute))
	assert.Equal(t, ActionTurnOn, actions.Valves["towel"])

	// Window expired: no reason to stay open.
	actions = c.Evaluate(now.Add(30 * time.Minute))
	assert.Equal(t, ActionStayOff, actions.Valves["towel"])
}

func TestControllerAutoModeRegularValvePreemptsFlush(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 1, now)
	c.AddZone(ZoneConfig{ID: "towel", Circuit: CircuitFlush, Kp: 50})
	c.SetFlushEnabled(true)
	c.UpdateZoneTemperature("towel", f64(22.0), 60)
	c.UpdateZonePID("towel", 60)
	c.UpdateZoneHistorical("towel", 0, 0, 0, false)
	c.UpdateZoneFailureState("towel", now, false, false)
	c.SetDHWActive(true, now)

	// DHW blocks z1 from starting, so no regular valve is on and the
	// flush circuit opens.
	actions := c.Evaluate(now)
	assert.Equal(t, ActionStayOff, actions.Valves["z1"])
	assert.Equal(t, ActionTurnOn, actions.Valves["towel"])

	// Once z1 is actually open, the flush circuit yields.
	c.Zone("z1").commitValve(true, now)
	actions = c.Evaluate(now)
	assert.Equal(t, ActionStayOn, actions.Valves["z1"])
	assert.Equal(t, ActionStayOff, actions.Valves["towel"])
}

func TestControllerCommitAppliesValveState(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 1, now)

	actions := c.Evaluate(now)
	require.Equal(t, ActionTurnOn, actions.Valves["z1"])
	assert.False(t, c.Zone("z1").ValveOn(), "evaluate must not mutate")

	c.Commit(actions, now)
	assert.True(t, c.Zone("z1").ValveOn())
	assert.Equal(t, now, c.Zone("z1").ValveOnSince())
}

func TestControllerSnapshotRestore(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 2, now)
	c.SetMode(ModeAllOff)
	c.SetFlushEnabled(true)
	c.SetZoneSetpoint("z1", 18.5)
	snap := c.Snapshot()

	fresh := NewController(DefaultTiming())
	fresh.AddZone(ZoneConfig{ID: "z1", Circuit: CircuitRegular, Kp: 50})
	fresh.AddZone(ZoneConfig{ID: "z2", Circuit: CircuitRegular, Kp: 50})
	fresh.Restore(snap)

	assert.Equal(t, ModeAllOff, fresh.Mode())
	assert.True(t, fresh.FlushEnabled())
	assert.Equal(t, 18.5, fresh.Zone("z1").Setpoint())
	assert.Equal(t, StatusNormal, fresh.Zone("z1").Status())
}

func TestControllerRestoreIgnoresBogusMode(t *testing.T) {
	c := NewController(DefaultTiming())
	c.Restore(ControllerSnapshot{Mode: "bogus"})
	assert.Equal(t, ModeAuto, c.Mode())
}

func TestControllerSetZoneControls(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	c := newTestController(t, 1, now)

	assert.True(t, c.SetZoneSetpoint("z1", 19.0))
	assert.Equal(t, 19.0, c.Zone("z1").Setpoint())
	assert.False(t, c.SetZoneSetpoint("nope", 19.0))

	assert.True(t, c.SetZoneEnabled("z1", false))
	assert.False(t, c.Zone("z1").Enabled())
	assert.False(t, c.SetZoneEnabled("nope", true))

	assert.False(t, c.SetZonePreset("z1", "eco"), "no presets configured")
}
