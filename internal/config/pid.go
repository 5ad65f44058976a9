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

// PIDConfig holds the per-zone regulator gains and integral accumulator
// bounds.
type PIDConfig struct {
	Kp          *float64 `yaml:"kp"`
	Ki          *float64 `yaml:"ki"`
	Kd          *float64 `yaml:"kd"`
	IntegralMin *float64 `yaml:"integral_min"`
	IntegralMax *float64 `yaml:"integral_max"`
}

func NewPIDConfig() *PIDConfig {
	cfg := &PIDConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *PIDConfig) FillDefaults() {
	if c.Kp == nil {
		c.Kp = GetPTR(core.DefaultKp)
	}
	if c.Ki == nil {
		c.Ki = GetPTR(core.DefaultKi)
	}
	if c.Kd == nil {
		c.Kd = GetPTR(core.DefaultKd)
	}
	if c.IntegralMin == nil {
		c.IntegralMin = GetPTR(core.DefaultIntegralMin)
	}
	if c.IntegralMax == nil {
		c.IntegralMax = GetPTR(core.DefaultIntegralMax)
	}
}
