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

package internal

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/antst/mzufhc/internal/config"
	"github.com/antst/mzufhc/internal/core"
	"github.com/antst/mzufhc/internal/db"
	"github.com/antst/mzufhc/internal/logger"
	"github.com/antst/mzufhc/internal/safe_mqtt"
)

const (
	// historyRetention is how much state-event history the store keeps;
	// it only needs to cover one observation period plus slack.
	historyRetention = 48 * time.Hour
	pruneEvery       = 60 // cycles
)

// HeatingService wires the decision core to the outside world. It owns the
// control loop: one cycle gathers cached sensor state, runs the four zone
// update stages, evaluates the controller and executes the resulting
// actions. MQTT control handlers mutate the core only under the same mutex
// the loop holds, so the core itself stays single-threaded.
type HeatingService struct {
	cfg     *config.Config
	timing  core.TimingParams
	queries *db.Queries
	mqtt    safe_mqtt.MqttClient

	mu         sync.Mutex
	controller *core.Controller
	zones      map[string]*ZoneIO
	boiler     *BoilerIO

	lastCycle    time.Time
	cycleCount   int
	displayTemps map[string]float64
}

// NewHeatingService builds the full service from the parsed configuration:
// core controller with one runtime per configured zone, per-zone MQTT I/O,
// boiler I/O, persistence, restored state.
func NewHeatingService() *HeatingService {
	cfg := config.Get()

	s := &HeatingService{
		cfg:          cfg,
		timing:       cfg.Timing.Params(),
		zones:        make(map[string]*ZoneIO),
		displayTemps: make(map[string]float64),
	}

	s.queries = db.OpenDatabase(cfg.DBFile)
	s.controller = core.NewController(s.timing)

	// Stable zone order: cycle mode and flush sequencing depend on it, and
	// YAML maps do not preserve order.
	names := make([]string, 0, len(cfg.Zones))
	for name := range cfg.Zones {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		zoneCfg := cfg.Zones[name]
		s.controller.AddZone(zoneCfg.CoreConfig(name))
		s.zones[name] = newZoneIO(name, zoneCfg, cfg.MQTTConfig, s.queries, s.zoneHandlers(name))
	}

	s.boiler = NewBoilerIO(cfg.Boiler, cfg.MQTTConfig, s.dhwUpdate)

	s.mqtt = safe_mqtt.InitMQTTClient(cfg.MQTTConfig.URL, "ufhc-"+uuid.New().String())
	s.setupControlSubscriptions()

	s.loadState()

	return s
}

func (s *HeatingService) setupControlSubscriptions() {
	controlTopic := s.cfg.MQTTConfig.ControlTopic
	s.mqtt.SafeSubscribe(controlTopic+"/mode", mqttQoS, s.controlUpdateHandler)
	s.mqtt.SafeSubscribe(controlTopic+"/flush_enable", mqttQoS, s.controlUpdateHandler)
	s.mqtt.SafeSubscribe(controlTopic+"/log_level", mqttQoS, s.controlUpdateHandler)
}

func (s *HeatingService) zoneHandlers(name string) zoneControlHandlers {
	return zoneControlHandlers{
		onSetpoint: func(v float64) {
			s.mu.Lock()
			s.controller.SetZoneSetpoint(name, v)
			s.mu.Unlock()
			s.saveState()
		},
		onEnable: func(v bool) {
			s.mu.Lock()
			s.controller.SetZoneEnabled(name, v)
			s.mu.Unlock()
			s.saveState()
		},
		onPreset: func(preset string) {
			s.mu.Lock()
			ok := s.controller.SetZonePreset(name, preset)
			s.mu.Unlock()
			if !ok {
				logger.L().Warnf("Zone %s has no preset `%s`", name, preset)
				return
			}
			s.saveState()
		},
	}
}

func (s *HeatingService) dhwUpdate(active bool) {
	s.mu.Lock()
	s.controller.SetDHWActive(active, time.Now())
	s.mu.Unlock()
}

func (s *HeatingService) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := lastTopicElement(message.Topic())
	payload := string(message.Payload())
	logger.L().Infof("main: Got MQTT control request: %v : %v", topic, payload)

	switch topic {
	case "mode":
		mode, ok := core.ParseMode(payload)
		if !ok {
			logger.L().Errorf("Unknown mode `%v`", payload)
			return
		}
		s.mu.Lock()
		s.controller.SetMode(mode)
		s.mu.Unlock()
		logger.L().Infof("Updated mode to `%v`", mode)
		s.saveState()
	case "flush_enable":
		v, err := parseBoolPayload(payload)
		if err != nil {
			logger.L().Error(err)
			return
		}
		s.mu.Lock()
		s.controller.SetFlushEnabled(v)
		s.mu.Unlock()
		logger.L().Infof("Updated flush_enable to %v", v)
		s.saveState()
	case "log_level":
		if err := s.cfg.LogLevel.Set(payload); err != nil {
			logger.L().Errorf("Wrong log level `%v`", payload)
		} else {
			logger.SetLogLevel(s.cfg.LogLevel)
			logger.L().Infof("Updated loglevel to `%v`", s.cfg.LogLevel.String())
		}
	}
}

// Run executes the control loop until the process exits. One cycle per
// loop interval; the first cycle runs immediately.
func (s *HeatingService) Run() {
	ticker := time.NewTicker(s.timing.LoopInterval)
	defer ticker.Stop()

	s.runCycle(time.Now())
	for now := range ticker.C {
		s.runCycle(now)
	}
}

// runCycle is the once-per-interval sequence: update every zone through its
// four stages, evaluate, execute, commit, publish, persist.
func (s *HeatingService) runCycle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := s.timing.LoopInterval.Seconds()
	if !s.lastCycle.IsZero() {
		dt = now.Sub(s.lastCycle).Seconds()
	}
	if maxDelta := s.timing.MaxCycleDelta.Seconds(); dt > maxDelta {
		logger.L().Warnf("Cycle delta %.0fs exceeds cap, clamping to %.0fs", dt, maxDelta)
		dt = maxDelta
	}
	// dt <= 0 (clock stepped backwards) is passed through: filter and
	// regulator treat it as a no-op cycle.
	s.lastCycle = now

	start, _ := s.controller.BeginCycle(now)

	for _, id := range s.controller.ZoneIDs() {
		s.updateZone(id, now, start, dt)
	}

	actions := s.controller.Evaluate(now)
	s.executeActions(actions)
	s.controller.Commit(actions, now)

	s.publishStatus()
	s.saveStateLocked()

	s.cycleCount++
	if s.cycleCount%pruneEvery == 0 {
		if err := s.queries.PruneStateEvents(context.Background(), now.Add(-historyRetention)); err != nil {
			logger.L().Error(err)
		}
	}
}

// updateZone runs the four ordered update stages for one zone, converting
// I/O failures into the fallback-value-plus-flag form the core expects.
func (s *HeatingService) updateZone(id string, now, periodStart time.Time, dt float64) {
	io := s.zones[id]
	ctx := context.Background()

	// Stage 1+2: temperature and regulator.
	raw := io.Temperature(now)
	s.controller.UpdateZoneTemperature(id, raw, dt)
	s.controller.UpdateZonePID(id, dt)

	// Stage 3: historical averages, with live-state fallbacks.
	queryFailed := false
	valveOn, valveKnown := io.ValveReported(now)
	if !valveKnown {
		// Actuator state unavailable degrades the zone.
		queryFailed = true
	}

	periodAvg, err := s.queries.StateAverage(ctx, io.ValveEntity(), periodStart, now)
	if err != nil {
		if !errors.Is(err, db.ErrNoHistory) {
			logger.L().Errorf("Period average query failed for zone %s: %v", id, err)
			queryFailed = true
		}
		periodAvg = live01(valveOn && valveKnown)
	}

	openStart, openEnd := core.ValveOpenWindow(now, s.timing.ValveOpenTime)
	openAvg, err := s.queries.StateAverage(ctx, io.ValveEntity(), openStart, openEnd)
	if err != nil {
		if !errors.Is(err, db.ErrNoHistory) {
			logger.L().Errorf("Open average query failed for zone %s: %v", id, err)
			queryFailed = true
		}
		openAvg = live01(valveOn && valveKnown)
	}

	windowAvg, err := s.queries.WindowOpenAverage(ctx, io.WindowEntities(), periodStart, now)
	if err != nil {
		logger.L().Errorf("Window average query failed for zone %s: %v", id, err)
		queryFailed = true
		windowAvg = 0 // assume closed
	}

	s.controller.UpdateZoneHistorical(id, periodAvg, openAvg, windowAvg, io.WindowCurrentlyOpen())

	// Stage 4: fault state machine.
	s.controller.UpdateZoneFailureState(id, now, raw == nil, queryFailed)
}

// executeActions pushes the action bundle out: every valve decision is
// re-sent (stay included), boiler fields only when present.
func (s *HeatingService) executeActions(actions core.Actions) {
	for id, action := range actions.Valves {
		zone := s.controller.Zone(id)
		if zone != nil && zone.Status() == core.StatusInitializing {
			// No actuator traffic until the zone has seen one good cycle.
			continue
		}
		s.zones[id].PublishValve(action.IsOn())
	}

	if actions.HeatRequest != nil {
		s.boiler.PublishHeatRequest(*actions.HeatRequest)
	}
	if actions.SummerMode != nil {
		s.boiler.PublishSummerMode(*actions.SummerMode)
	}
}

func live01(on bool) float64 {
	if on {
		return 1.0
	}
	return 0.0
}

// loadState restores mode, flush flag and per-zone snapshots from sqlite.
func (s *HeatingService) loadState() {
	ctx := context.Background()

	snap := core.ControllerSnapshot{Zones: make(map[string]core.ZoneSnapshot)}

	if v, err := s.queries.GetControllerValue(ctx, "mode"); err == nil {
		snap.Mode = core.Mode(v)
	}
	if v, err := s.queries.GetControllerValue(ctx, "flush_enabled"); err == nil {
		snap.FlushEnabled = v == "true"
	}

	for _, id := range s.controller.ZoneIDs() {
		row, err := s.queries.GetZoneState(ctx, id)
		if err != nil {
			continue
		}
		snap.Zones[id] = core.ZoneSnapshot{
			PID: core.PIDSnapshot{
				Integral:  row.Integral,
				LastError: row.LastError,
				DutyCycle: row.DutyCycle,
			},
			Setpoint: row.Setpoint,
			Enabled:  row.Enabled,
			Status:   core.Status(row.Status),
		}
		logger.L().Debugf("Loaded previous state from DB for zone %v", id)
	}

	s.mu.Lock()
	s.controller.Restore(snap)
	s.mu.Unlock()
}

func (s *HeatingService) saveState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveStateLocked()
}

// saveStateLocked persists the controller snapshot; callers hold s.mu.
func (s *HeatingService) saveStateLocked() {
	ctx := context.Background()
	snap := s.controller.Snapshot()

	if err := s.queries.UpsertControllerValue(ctx, "mode", string(snap.Mode)); err != nil {
		logger.L().Error(err)
	}
	if err := s.queries.UpsertControllerValue(ctx, "flush_enabled", strconv.FormatBool(snap.FlushEnabled)); err != nil {
		logger.L().Error(err)
	}

	for id, zs := range snap.Zones {
		row := db.ZoneStateRow{
			ZoneName:  id,
			Integral:  zs.PID.Integral,
			LastError: zs.PID.LastError,
			DutyCycle: zs.PID.DutyCycle,
			Setpoint:  zs.Setpoint,
			Enabled:   zs.Enabled,
			Status:    string(zs.Status),
		}
		if err := s.queries.UpsertZoneState(ctx, row); err != nil {
			logger.L().Error(err)
		}
	}
}
