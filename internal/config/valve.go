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

package config

// ValveConfig describes one zone valve actuator: the topic commands go out
// on and the topic the actuator reports its state back on.
type ValveConfig struct {
	CommandTopic string  `yaml:"command_topic"`
	StateTopic   string  `yaml:"state_topic"`
	OnPayload    *string `yaml:"on_payload"`
	OffPayload   *string `yaml:"off_payload"`
}

func (v *ValveConfig) FillDefaults() {
	if v.OnPayload == nil {
		v.OnPayload = GetPTR("ON")
	}
	if v.OffPayload == nil {
		v.OffPayload = GetPTR("OFF")
	}
}
