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

package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// ErrNoHistory marks an entity with no recorded state events in or before
// the queried range. Callers fall back to their cached live state.
var ErrNoHistory = errors.New("no state history for entity")

type stateEvent struct {
	State int   `db:"state"`
	TS    int64 `db:"ts"`
}

// StateAverage returns the time-weighted fraction of [start, end] during
// which entity was on, as a value in [0, 1]. The state at the start of the
// range is taken from the newest event at or before start; time before the
// first known event counts as off.
func (q *Queries) StateAverage(ctx context.Context, entity string, start, end time.Time) (float64, error) {
	total := end.Sub(start).Seconds()
	if total <= 0 {
		return 0, nil
	}

	var initial int
	err := q.db.GetContext(
		ctx, &initial,
		`SELECT state FROM state_events WHERE entity = ? AND ts <= ? ORDER BY ts DESC, id DESC LIMIT 1`,
		entity, start.Unix(),
	)
	hasInitial := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrapf(err, "initial state of %q", entity)
	}

	var events []stateEvent
	if err := q.db.SelectContext(
		ctx, &events,
		`SELECT state, ts FROM state_events WHERE entity = ? AND ts > ? AND ts <= ? ORDER BY ts, id`,
		entity, start.Unix(), end.Unix(),
	); err != nil {
		return 0, errors.Wrapf(err, "state events of %q", entity)
	}

	if !hasInitial && len(events) == 0 {
		return 0, errors.Wrapf(ErrNoHistory, "%q", entity)
	}

	current := 0
	if hasInitial {
		current = initial
	}

	onTime := 0.0
	cursor := start.Unix()
	for _, e := range events {
		if current != 0 {
			onTime += float64(e.TS - cursor)
		}
		current = e.State
		cursor = e.TS
	}
	if current != 0 {
		onTime += float64(end.Unix() - cursor)
	}

	avg := onTime / total
	if avg < 0 {
		avg = 0
	}
	if avg > 1 {
		avg = 1
	}
	return avg, nil
}

// WindowOpenAverage returns the worst-case open fraction across a zone's
// window sensors: any single open window blocks the zone, so the maximum
// wins. Sensors with no recorded history count as closed. No sensors means
// 0.
func (q *Queries) WindowOpenAverage(ctx context.Context, entities []string, start, end time.Time) (float64, error) {
	maxOpen := 0.0
	for _, entity := range entities {
		avg, err := q.StateAverage(ctx, entity, start, end)
		if errors.Is(err, ErrNoHistory) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if avg > maxOpen {
			maxOpen = avg
		}
	}
	return maxOpen, nil
}
