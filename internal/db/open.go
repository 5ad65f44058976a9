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

// Package db persists controller state to sqlite and answers the
// time-weighted historical average queries the scheduling core depends on.
package db

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/antst/mzufhc/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS controller_values (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS zone_states (
    zone_name  TEXT PRIMARY KEY,
    integral   REAL NOT NULL,
    last_error REAL NOT NULL,
    duty_cycle REAL NOT NULL,
    setpoint   REAL NOT NULL,
    enabled    INTEGER NOT NULL,
    status     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS state_events (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    entity TEXT NOT NULL,
    state  INTEGER NOT NULL,
    ts     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_state_events_entity_ts ON state_events (entity, ts);
`

// OpenDatabase opens (creating if needed) the sqlite store at dbFile.
func OpenDatabase(dbFile string) *Queries {
	sqlDB, err := sqlx.Open("sqlite3", dbFile)
	if err != nil {
		logger.L().Panic(err)
	}

	if err := sqlDB.Ping(); err != nil {
		logger.L().Panicf("%s: %v", dbFile, err)
	}

	// sqlite serializes writers anyway; one connection avoids lock churn.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		logger.L().Panic(err)
	}

	return New(sqlDB)
}
