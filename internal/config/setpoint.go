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

// SetpointConfig bounds the zone target temperature.
type SetpointConfig struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Step    *float64 `yaml:"step"`
	Default *float64 `yaml:"default"`
}

func NewSetpointConfig() *SetpointConfig {
	cfg := &SetpointConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *SetpointConfig) FillDefaults() {
	if c.Min == nil {
		c.Min = GetPTR(core.DefaultSetpointMin)
	}
	if c.Max == nil {
		c.Max = GetPTR(core.DefaultSetpointMax)
	}
	if c.Step == nil {
		c.Step = GetPTR(core.DefaultSetpointStep)
	}
	if c.Default == nil {
		c.Default = GetPTR(core.DefaultSetpointDefault)
	}
}
