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
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Queries wraps the sqlite handle with the typed queries the driver uses.
type Queries struct {
	db *sqlx.DB
}

// New returns Queries over an open database.
func New(db *sqlx.DB) *Queries {
	return &Queries{db: db}
}

// Close closes the underlying database.
func (q *Queries) Close() error {
	return q.db.Close()
}

// ZoneStateRow is the persisted per-zone snapshot.
type ZoneStateRow struct {
	ZoneName  string  `db:"zone_name"`
	Integral  float64 `db:"integral"`
	LastError float64 `db:"last_error"`
	DutyCycle float64 `db:"duty_cycle"`
	Setpoint  float64 `db:"setpoint"`
	Enabled   bool    `db:"enabled"`
	Status    string  `db:"status"`
}

// UpsertZoneState stores a zone snapshot.
func (q *Queries) UpsertZoneState(ctx context.Context, row ZoneStateRow) error {
	_, err := q.db.NamedExecContext(
		ctx,
		`INSERT INTO zone_states (zone_name, integral, last_error, duty_cycle, setpoint, enabled, status)
		 VALUES (:zone_name, :integral, :last_error, :duty_cycle, :setpoint, :enabled, :status)
		 ON CONFLICT(zone_name) DO UPDATE SET
		   integral=excluded.integral, last_error=excluded.last_error,
		   duty_cycle=excluded.duty_cycle, setpoint=excluded.setpoint,
		   enabled=excluded.enabled, status=excluded.status`,
		row,
	)
	return errors.Wrapf(err, "upsert zone state %q", row.ZoneName)
}

// GetZoneState loads a zone snapshot.
func (q *Queries) GetZoneState(ctx context.Context, zoneName string) (ZoneStateRow, error) {
	var row ZoneStateRow
	err := q.db.GetContext(ctx, &row, `SELECT * FROM zone_states WHERE zone_name = ?`, zoneName)
	return row, err
}

// UpsertControllerValue stores a global key/value pair (mode, flush flag).
func (q *Queries) UpsertControllerValue(ctx context.Context, name, value string) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO controller_values (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value=excluded.value`,
		name, value,
	)
	return errors.Wrapf(err, "upsert controller value %q", name)
}

// GetControllerValue loads a global key/value pair.
func (q *Queries) GetControllerValue(ctx context.Context, name string) (string, error) {
	var value string
	err := q.db.GetContext(ctx, &value, `SELECT value FROM controller_values WHERE name = ?`, name)
	return value, err
}

// InsertStateEvent records a binary state transition for entity at ts. The
// driver calls it from its MQTT handlers; the rows back StateAverage.
func (q *Queries) InsertStateEvent(ctx context.Context, entity string, on bool, ts time.Time) error {
	state := 0
	if on {
		state = 1
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO state_events (entity, state, ts) VALUES (?, ?, ?)`,
		entity, state, ts.Unix(),
	)
	return errors.Wrapf(err, "insert state event %q", entity)
}

// PruneStateEvents drops events older than before, keeping per entity the
// newest older row so range queries still find their initial state.
func (q *Queries) PruneStateEvents(ctx context.Context, before time.Time) error {
	_, err := q.db.ExecContext(
		ctx,
		`DELETE FROM state_events
		 WHERE ts < ?
		   AND id NOT IN (
		     SELECT MAX(id) FROM state_events WHERE ts < ? GROUP BY entity
		   )`,
		before.Unix(), before.Unix(),
	)
	return errors.Wrap(err, "prune state events")
}
