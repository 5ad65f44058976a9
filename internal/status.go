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
	"encoding/json"
	"math"
	"time"

	"github.com/antst/mzufhc/internal/core"
	"github.com/antst/mzufhc/internal/logger"
)

// zoneStatus is the per-zone document published each cycle. Temperature is
// the hysteresis-rounded display value; nil while no reading is available.
type zoneStatus struct {
	Temperature *float64    `json:"temperature"`
	Setpoint    float64     `json:"setpoint"`
	DutyCycle   float64     `json:"duty_cycle"`
	Error       float64     `json:"error"`
	PTerm       float64     `json:"p_term"`
	ITerm       float64     `json:"i_term"`
	DTerm       float64     `json:"d_term"`
	ValveOn     bool        `json:"valve_on"`
	Enabled     bool        `json:"enabled"`
	Status      core.Status `json:"status"`
	Blocked     bool        `json:"window_blocked"`
	HeatRequest bool        `json:"heat_request"`
}

type controllerStatus struct {
	Mode             core.Mode   `json:"mode"`
	Status           core.Status `json:"status"`
	FlushEnabled     bool        `json:"flush_enabled"`
	DHWActive        bool        `json:"dhw_active"`
	ObservationStart time.Time   `json:"observation_start"`
}

// publishStatus emits the per-zone and controller status documents. Callers
// hold s.mu.
func (s *HeatingService) publishStatus() {
	statusTopic := s.cfg.MQTTConfig.StatusTopic

	for _, id := range s.controller.ZoneIDs() {
		zone := s.controller.Zone(id)
		state := zone.PIDState()

		doc := zoneStatus{
			Setpoint:    zone.Setpoint(),
			DutyCycle:   state.DutyCycle,
			Error:       state.Error,
			PTerm:       state.PTerm,
			ITerm:       state.ITerm,
			DTerm:       state.DTerm,
			ValveOn:     zone.ValveOn(),
			Enabled:     zone.Enabled(),
			Status:      zone.Status(),
			Blocked:     zone.WindowBlocked(),
			HeatRequest: core.ShouldRequestHeat(zone, s.timing),
		}

		if temp, ok := zone.Temperature(); ok {
			prev, seen := s.displayTemps[id]
			if !seen {
				prev = math.NaN()
			}
			display := core.RoundWithHysteresis(temp, prev)
			s.displayTemps[id] = display
			doc.Temperature = &display
		}

		s.publishJSON(statusTopic+"/zone/"+id, doc)
	}

	start, _ := s.controller.ObservationWindow()
	s.publishJSON(statusTopic+"/controller", controllerStatus{
		Mode:             s.controller.Mode(),
		Status:           s.controller.Status(),
		FlushEnabled:     s.controller.FlushEnabled(),
		DHWActive:        s.controller.DHWActive(),
		ObservationStart: start,
	})
}

func (s *HeatingService) publishJSON(topic string, doc any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		logger.L().Error(err)
		return
	}
	s.mqtt.SafePublish(topic, mqttQoS, true, string(payload))
}
