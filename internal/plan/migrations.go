package plan

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1PlanItems,
	2: migrationV2Settings,
}

// migrationV1PlanItems stores one row per accepted leave window. The day
// records are kept as JSON since they are only ever read back whole.
const migrationV1PlanItems = `
CREATE TABLE IF NOT EXISTS plan_items (
	id                  TEXT PRIMARY KEY,
	position            INTEGER NOT NULL,
	start_date          TEXT NOT NULL,
	end_date            TEXT NOT NULL,
	total_days          INTEGER NOT NULL,
	leave_days_required INTEGER NOT NULL,
	free_days           INTEGER NOT NULL,
	efficiency          REAL NOT NULL,
	efficiency_label    TEXT NOT NULL DEFAULT '',
	days_json           TEXT NOT NULL DEFAULT '[]',
	added_at            TEXT NOT NULL,
	is_custom           INTEGER NOT NULL DEFAULT 0,
	label               TEXT NOT NULL DEFAULT '',
	CHECK (end_date >= start_date)
);

CREATE INDEX IF NOT EXISTS idx_plan_items_start ON plan_items(start_date);
`

// migrationV2Settings adds the entitlement, preferences and custom holidays
const migrationV2Settings = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_holidays (
	position       INTEGER PRIMARY KEY,
	name           TEXT NOT NULL,
	localized_name TEXT NOT NULL DEFAULT '',
	kind           TEXT NOT NULL CHECK (kind IN ('one-time', 'recurring', 'movable', 'conditional')),
	date           TEXT NOT NULL DEFAULT '',
	offset_days    TEXT NOT NULL DEFAULT ''
);
`
