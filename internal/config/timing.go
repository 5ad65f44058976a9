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

import (
	"time"

	"github.com/antst/mzufhc/internal/core"
)

// TimingConfig is the YAML form of the scheduling parameters, all in
// seconds.
type TimingConfig struct {
	ObservationPeriod      *int     `yaml:"observation_period"`
	MinRunTime             *int     `yaml:"min_run_time"`
	ValveOpenTime          *int     `yaml:"valve_open_time"`
	ClosingWarningDuration *int     `yaml:"closing_warning_duration"`
	WindowBlockThreshold   *float64 `yaml:"window_block_threshold"`
	FlushWindow            *int     `yaml:"flush_window"`
	FailSafeTimeout        *int     `yaml:"fail_safe_timeout"`
	LoopInterval           *int     `yaml:"loop_interval"`
	MaxCycleDelta          *int     `yaml:"max_cycle_delta"`
}

func NewTimingConfig() *TimingConfig {
	cfg := &TimingConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *TimingConfig) FillDefaults() {
	def := core.DefaultTiming()
	if c.ObservationPeriod == nil {
		c.ObservationPeriod = GetPTR(int(def.ObservationPeriod.Seconds()))
	}
	if c.MinRunTime == nil {
		c.MinRunTime = GetPTR(int(def.MinRunTime.Seconds()))
	}
	if c.ValveOpenTime == nil {
		c.ValveOpenTime = GetPTR(int(def.ValveOpenTime.Seconds()))
	}
	if c.ClosingWarningDuration == nil {
		c.ClosingWarningDuration = GetPTR(int(def.ClosingWarningDuration.Seconds()))
	}
	if c.WindowBlockThreshold == nil {
		c.WindowBlockThreshold = GetPTR(def.WindowBlockThreshold)
	}
	if c.FlushWindow == nil {
		c.FlushWindow = GetPTR(int(def.FlushWindow.Seconds()))
	}
	if c.FailSafeTimeout == nil {
		c.FailSafeTimeout = GetPTR(int(def.FailSafeTimeout.Seconds()))
	}
	if c.LoopInterval == nil {
		c.LoopInterval = GetPTR(int(def.LoopInterval.Seconds()))
	}
	if c.MaxCycleDelta == nil {
		c.MaxCycleDelta = GetPTR(int(def.MaxCycleDelta.Seconds()))
	}
}

// Params maps the YAML section onto the core timing parameters.
func (c *TimingConfig) Params() core.TimingParams {
	return core.TimingParams{
		ObservationPeriod:      time.Duration(*c.ObservationPeriod) * time.Second,
		MinRunTime:             time.Duration(*c.MinRunTime) * time.Second,
		ValveOpenTime:          time.Duration(*c.ValveOpenTime) * time.Second,
		ClosingWarningDuration: time.Duration(*c.ClosingWarningDuration) * time.Second,
		WindowBlockThreshold:   *c.WindowBlockThreshold,
		FlushWindow:            time.Duration(*c.FlushWindow) * time.Second,
		FailSafeTimeout:        time.Duration(*c.FailSafeTimeout) * time.Second,
		LoopInterval:           time.Duration(*c.LoopInterval) * time.Second,
		MaxCycleDelta:          time.Duration(*c.MaxCycleDelta) * time.Second,
	}
}
