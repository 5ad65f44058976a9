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

import "github.com/antst/mzufhc/internal/core"

// ZoneConfig describes one heating circuit: its temperature sensors, valve
// topics, window sensors and regulation parameters.
type ZoneConfig struct {
	Circuit            string             `yaml:"circuit,omitempty"`
	Sensors            []*SensorConfig    `yaml:"sensors"`
	Valve              *ValveConfig       `yaml:"valve"`
	Windows            []*BinaryConfig    `yaml:"windows,omitempty"`
	Setpoint           *SetpointConfig    `yaml:"setpoint"`
	PID                *PIDConfig         `yaml:"pid"`
	FilterTimeConstant *float64           `yaml:"filter_time_constant"`
	Presets            map[string]float64 `yaml:"presets,omitempty"`
}

func (z *ZoneConfig) FillDefaults() {
	if z.Circuit == "" {
		z.Circuit = string(core.CircuitRegular)
	}
	if z.Setpoint == nil {
		z.Setpoint = NewSetpointConfig()
	}
	z.Setpoint.FillDefaults()
	if z.PID == nil {
		z.PID = NewPIDConfig()
	}
	z.PID.FillDefaults()
	if z.Valve == nil {
		z.Valve = &ValveConfig{}
	}
	z.Valve.FillDefaults()
	if z.FilterTimeConstant == nil {
		z.FilterTimeConstant = GetPTR(0.0)
	}
	for _, s := range z.Sensors {
		s.FillDefaults()
	}
	for _, w := range z.Windows {
		w.FillDefaults()
	}
}

// CoreConfig maps the YAML zone section onto the decision core's static
// zone configuration.
func (z *ZoneConfig) CoreConfig(id string) core.ZoneConfig {
	cfg := core.ZoneConfig{
		ID:                 id,
		Circuit:            core.CircuitType(z.Circuit),
		SetpointMin:        *z.Setpoint.Min,
		SetpointMax:        *z.Setpoint.Max,
		SetpointStep:       *z.Setpoint.Step,
		SetpointDefault:    *z.Setpoint.Default,
		Kp:                 *z.PID.Kp,
		Ki:                 *z.PID.Ki,
		Kd:                 *z.PID.Kd,
		IntegralMin:        *z.PID.IntegralMin,
		IntegralMax:        *z.PID.IntegralMax,
		FilterTimeConstant: *z.FilterTimeConstant,
		Presets:            z.Presets,
	}
	cfg.FillDefaults()
	return cfg
}

func NewZoneConfig() *ZoneConfig {
	z := &ZoneConfig{
		Sensors: make([]*SensorConfig, 0),
	}
	z.FillDefaults()
	return z
}
