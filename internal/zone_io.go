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
	"fmt"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/antst/mzufhc/internal/config"
	"github.com/antst/mzufhc/internal/db"
	"github.com/antst/mzufhc/internal/logger"
	"github.com/antst/mzufhc/internal/safe_mqtt"
)

const epsilon = 1e-10

// zoneControlHandlers are the service callbacks a ZoneIO invokes for
// control requests arriving over MQTT. They run on paho goroutines; the
// service serializes them against the control loop.
type zoneControlHandlers struct {
	onSetpoint func(float64)
	onEnable   func(bool)
	onPreset   func(string)
}

type sensorReading struct {
	cfg       *config.SensorConfig
	value     float64
	timestamp time.Time
}

type windowReading struct {
	cfg  *config.BinaryConfig
	open bool
	seen bool
}

// ZoneIO owns one zone's MQTT surface: temperature sensors, the valve
// actuator (command out, reported state in) and window sensors. Handlers
// only update caches and append state events to the history store; the
// control loop reads the caches once per cycle.
type ZoneIO struct {
	name     string
	mu       sync.RWMutex
	cfg      *config.ZoneConfig
	mqtt     safe_mqtt.MqttClient
	queries  *db.Queries
	handlers zoneControlHandlers

	sensors []*sensorReading
	windows []*windowReading

	valveReported  bool
	valveKnown     bool
	valveTimestamp time.Time
}

func newZoneIO(
	name string, cfg *config.ZoneConfig, mqttCfg *config.MQTTConfig, q *db.Queries,
	handlers zoneControlHandlers,
) *ZoneIO {
	z := &ZoneIO{
		name:     name,
		cfg:      cfg,
		queries:  q,
		handlers: handlers,
	}

	z.mqtt = safe_mqtt.InitMQTTClient(mqttCfg.URL, "ufhc-zone-"+name+"-"+uuid.New().String())

	z.sensors = make([]*sensorReading, len(cfg.Sensors))
	for i, sc := range cfg.Sensors {
		reading := &sensorReading{cfg: sc, timestamp: zeroTS}
		z.sensors[i] = reading
		z.mqtt.SafeSubscribe(sc.Topic, mqttQoS, z.sensorUpdateHandler(reading))
	}

	z.windows = make([]*windowReading, len(cfg.Windows))
	for i, wc := range cfg.Windows {
		reading := &windowReading{cfg: wc}
		z.windows[i] = reading
		z.mqtt.SafeSubscribe(wc.Topic, mqttQoS, z.windowUpdateHandler(reading, z.windowEntity(i)))
	}

	if cfg.Valve.StateTopic != "" {
		z.mqtt.SafeSubscribe(cfg.Valve.StateTopic, mqttQoS, z.valveStateHandler)
	}

	zoneMQTTgroup := mqttCfg.ControlTopic + "/zone/" + name + "/"
	z.mqtt.SafeSubscribe(zoneMQTTgroup+"setpoint", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(zoneMQTTgroup+"enable", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(zoneMQTTgroup+"preset", mqttQoS, z.controlUpdateHandler)

	return z
}

func (z *ZoneIO) sensorUpdateHandler(reading *sensorReading) mqtt.MessageHandler {
	return func(client mqtt.Client, message mqtt.Message) {
		t0, err := extractF64PlainOrJson(message, reading.cfg.JSONEntry)
		if err != nil {
			logger.L().Error(err)
			return
		}
		z.mu.Lock()
		reading.value = t0*(*reading.cfg.Scale) + (*reading.cfg.Offset)
		reading.timestamp = time.Now()
		z.mu.Unlock()
		logger.L().Debugf("Zone %s sensor %s: %.2f", z.name, message.Topic(), t0)
	}
}

func (z *ZoneIO) windowUpdateHandler(reading *windowReading, entity string) mqtt.MessageHandler {
	return func(client mqtt.Client, message mqtt.Message) {
		open, err := extractBinary(message, reading.cfg.JSONEntry, *reading.cfg.OnValue)
		if err != nil {
			logger.L().Error(err)
			return
		}
		z.mu.Lock()
		changed := !reading.seen || reading.open != open
		reading.open = open
		reading.seen = true
		z.mu.Unlock()

		if changed {
			logger.L().Infof("Zone %s window %s: open=%v", z.name, message.Topic(), open)
			if err := z.queries.InsertStateEvent(context.Background(), entity, open, time.Now()); err != nil {
				logger.L().Error(err)
			}
		}
	}
}

func (z *ZoneIO) valveStateHandler(client mqtt.Client, message mqtt.Message) {
	on, err := extractBinary(message, nil, *z.cfg.Valve.OnPayload)
	if err != nil {
		logger.L().Error(err)
		return
	}

	z.mu.Lock()
	changed := !z.valveKnown || z.valveReported != on
	z.valveReported = on
	z.valveKnown = true
	z.valveTimestamp = time.Now()
	z.mu.Unlock()

	if changed {
		logger.L().Debugf("Zone %s valve reported: on=%v", z.name, on)
		if err := z.queries.InsertStateEvent(context.Background(), z.ValveEntity(), on, time.Now()); err != nil {
			logger.L().Error(err)
		}
	}
}

func (z *ZoneIO) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := lastTopicElement(message.Topic())
	payload := string(message.Payload())
	logger.L().Infof("Zone %v got MQTT control request: %v : %v", z.name, topic, payload)

	switch topic {
	case "setpoint":
		value, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			logger.L().Error(err)
			return
		}
		z.handlers.onSetpoint(value)
	case "enable":
		value, err := parseBoolPayload(payload)
		if err != nil {
			logger.L().Error(err)
			return
		}
		z.handlers.onEnable(value)
	case "preset":
		z.handlers.onPreset(payload)
	default:
		logger.L().Errorf("Unknown control topic: %s", topic)
	}
}

// Temperature returns the weighted mean of all fresh sensor readings, or
// nil when every sensor is missing or stale.
func (z *ZoneIO) Temperature(now time.Time) *float64 {
	z.mu.RLock()
	defer z.mu.RUnlock()

	var v, wt float64
	for _, s := range z.sensors {
		if s.timestamp.After(zeroTS) && now.Sub(s.timestamp) <= staleAfter {
			weight := *s.cfg.Weight
			v += s.value * weight
			wt += weight
		}
	}
	if wt < epsilon {
		return nil
	}
	mean := v / wt
	return &mean
}

// ValveReported returns the actuator's last reported state; known is false
// when no report arrived yet or the last one is stale.
func (z *ZoneIO) ValveReported(now time.Time) (on, known bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if !z.valveKnown || now.Sub(z.valveTimestamp) > staleAfter {
		return false, false
	}
	return z.valveReported, true
}

// WindowCurrentlyOpen reports whether any window sensor currently reads
// open.
func (z *ZoneIO) WindowCurrentlyOpen() bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	for _, w := range z.windows {
		if w.seen && w.open {
			return true
		}
	}
	return false
}

// ValveEntity is the history-store key of the valve actuator.
func (z *ZoneIO) ValveEntity() string {
	return "valve/" + z.name
}

// WindowEntities are the history-store keys of the window sensors.
func (z *ZoneIO) WindowEntities() []string {
	entities := make([]string, len(z.windows))
	for i := range z.windows {
		entities[i] = z.windowEntity(i)
	}
	return entities
}

func (z *ZoneIO) windowEntity(i int) string {
	return fmt.Sprintf("window/%s/%d", z.name, i)
}

// PublishValve sends the valve command. Stay decisions re-send the current
// command so external dead-man timers do not release the valve.
func (z *ZoneIO) PublishValve(on bool) {
	payload := *z.cfg.Valve.OffPayload
	if on {
		payload = *z.cfg.Valve.OnPayload
	}
	z.mqtt.PublishAndWait(z.cfg.Valve.CommandTopic, mqttQoS, true, payload)
}
