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

// Package internal is the external driver around the decision core: it
// collects sensor and actuator state over MQTT, answers the core's
// historical queries from sqlite, runs the control loop and executes the
// actions the core emits.
package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const (
	mqttQoS byte = 1

	// staleAfter is how old a cached sensor reading may be before it counts
	// as unavailable for a cycle.
	staleAfter = 15 * time.Minute
)

var zeroTS time.Time

func init() {
	zeroTS = time.UnixMicro(0)
}

func extractF64PlainOrJson(message mqtt.Message, JSONEntry *string) (float64, error) {
	if JSONEntry == nil {
		return strconv.ParseFloat(string(message.Payload()), 64)
	}

	var valMap map[string]interface{}
	if err := json.Unmarshal(message.Payload(), &valMap); err != nil {
		return 0, errors.Wrapf(err, "json unmarshal error with : %v : %v", message.Topic(), string(message.Payload()))
	}

	v, ok := valMap[*JSONEntry]
	if !ok {
		return 0, fmt.Errorf("not found: `%v` in `%v`: %v", *JSONEntry, message.Topic(), string(message.Payload()))
	}

	t0, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("cannot cast `%v` to float64 in : %v : %v", v, message.Topic(), string(message.Payload()))
	}

	return t0, nil
}

// extractBinary interprets a payload (or one JSON entry of it) as a binary
// state, comparing against onValue case-insensitively and accepting the
// usual boolean spellings.
func extractBinary(message mqtt.Message, JSONEntry *string, onValue string) (bool, error) {
	raw := string(message.Payload())

	if JSONEntry != nil {
		var valMap map[string]interface{}
		if err := json.Unmarshal(message.Payload(), &valMap); err != nil {
			return false, errors.Wrapf(err, "json unmarshal error with : %v : %v", message.Topic(), raw)
		}
		v, ok := valMap[*JSONEntry]
		if !ok {
			return false, fmt.Errorf("not found: `%v` in `%v`: %v", *JSONEntry, message.Topic(), raw)
		}
		raw = fmt.Sprintf("%v", v)
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	if s == strings.ToLower(onValue) {
		return true, nil
	}
	switch s {
	case "on", "true", "1", "open":
		return true, nil
	case "off", "false", "0", "closed":
		return false, nil
	}
	return false, fmt.Errorf("cannot interpret `%v` from %v as binary state", raw, message.Topic())
}

func parseBoolPayload(payload string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "true", "on", "1":
		return true, nil
	case "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean payload: %q", payload)
}

func lastTopicElement(topic string) string {
	return topic[strings.LastIndex(topic, "/")+1:]
}
