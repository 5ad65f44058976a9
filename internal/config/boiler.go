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

// BoilerConfig describes the boiler-side outputs and the DHW input. Empty
// topics disable the corresponding output.
type BoilerConfig struct {
	HeatRequestTopic string        `yaml:"heat_request_topic"`
	SummerModeTopic  string        `yaml:"summer_mode_topic"`
	DHW              *BinaryConfig `yaml:"dhw,omitempty"`
}

func NewBoilerConfig() *BoilerConfig {
	cfg := &BoilerConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *BoilerConfig) FillDefaults() {
	if c.DHW != nil {
		c.DHW.FillDefaults()
	}
}
