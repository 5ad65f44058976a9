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
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/antst/mzufhc/internal/config"
	"github.com/antst/mzufhc/internal/core"
	"github.com/antst/mzufhc/internal/logger"
	"github.com/antst/mzufhc/internal/safe_mqtt"
)

// BoilerIO publishes the aggregated boiler commands (heat request, summer
// mode) and watches the DHW flag. The core decides; this only translates.
type BoilerIO struct {
	cfg   *config.BoilerConfig
	mqtt  safe_mqtt.MqttClient
	onDHW func(bool)
}

func NewBoilerIO(cfg *config.BoilerConfig, mqttCfg *config.MQTTConfig, onDHW func(bool)) *BoilerIO {
	b := &BoilerIO{cfg: cfg, onDHW: onDHW}
	b.mqtt = safe_mqtt.InitMQTTClient(mqttCfg.URL, "ufhc-boiler-"+uuid.New().String())

	if cfg.DHW != nil && cfg.DHW.Topic != "" {
		b.mqtt.SafeSubscribe(cfg.DHW.Topic, mqttQoS, b.dhwUpdateHandler)
	}

	return b
}

func (b *BoilerIO) dhwUpdateHandler(client mqtt.Client, message mqtt.Message) {
	active, err := extractBinary(message, b.cfg.DHW.JSONEntry, *b.cfg.DHW.OnValue)
	if err != nil {
		logger.L().Error(err)
		return
	}
	logger.L().Debugf("DHW active: %v", active)
	b.onDHW(active)
}

// PublishHeatRequest sends the aggregated heat demand, "1"/"0".
func (b *BoilerIO) PublishHeatRequest(on bool) {
	if b.cfg.HeatRequestTopic == "" {
		return
	}
	payload := "0"
	if on {
		payload = "1"
	}
	logger.L().Infof("Boiler heat request -> %s", payload)
	b.mqtt.PublishAndWait(b.cfg.HeatRequestTopic, mqttQoS, true, payload)
}

// PublishSummerMode sends the season selector.
func (b *BoilerIO) PublishSummerMode(mode core.SummerMode) {
	if b.cfg.SummerModeTopic == "" {
		return
	}
	logger.L().Infof("Boiler summer mode -> %s", mode)
	b.mqtt.PublishAndWait(b.cfg.SummerModeTopic, mqttQoS, true, string(mode))
}
