package storage

// The partial unique index on matched_with keeps a public submission paired
// with at most one registered case; the CHECK keeps matched_with set exactly
// when the case is FOUND.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS public_submissions (
	id           TEXT PRIMARY KEY,
	seq          BIGSERIAL,
	submitted_by VARCHAR(128) NOT NULL DEFAULT '',
	face_mesh    TEXT NOT NULL DEFAULT '',
	location     VARCHAR(128) NOT NULL DEFAULT '',
	mobile       VARCHAR(10) NOT NULL,
	email        VARCHAR(64) NOT NULL DEFAULT '',
	status       VARCHAR(16) NOT NULL CHECK (status IN ('NOT_FOUND', 'FOUND')),
	birth_marks  VARCHAR(512) NOT NULL DEFAULT '',
	submitted_on TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS registered_cases (
	id                 TEXT PRIMARY KEY,
	seq                BIGSERIAL,
	submitted_by       VARCHAR(64) NOT NULL,
	name               VARCHAR(128) NOT NULL,
	father_name        VARCHAR(128) NOT NULL DEFAULT '',
	age                VARCHAR(8) NOT NULL DEFAULT '',
	complainant_name   VARCHAR(128) NOT NULL,
	complainant_mobile VARCHAR(10) NOT NULL DEFAULT '',
	national_id        VARCHAR(12) NOT NULL DEFAULT '',
	last_seen          VARCHAR(64) NOT NULL DEFAULT '',
	address            VARCHAR(512) NOT NULL DEFAULT '',
	face_mesh          TEXT NOT NULL DEFAULT '',
	submitted_on       TIMESTAMPTZ NOT NULL,
	status             VARCHAR(16) NOT NULL CHECK (status IN ('NOT_FOUND', 'FOUND')),
	birth_marks        VARCHAR(512) NOT NULL DEFAULT '',
	matched_with       TEXT REFERENCES public_submissions (id),
	alert_draft        TEXT,
	match_explanation  TEXT,
	lead_priority      TEXT,
	witness_summary    TEXT,
	CONSTRAINT registered_cases_match_state CHECK ((matched_with IS NULL) = (status = 'NOT_FOUND'))
);

CREATE UNIQUE INDEX IF NOT EXISTS registered_cases_matched_with_key
	ON registered_cases (matched_with) WHERE matched_with IS NOT NULL;
CREATE INDEX IF NOT EXISTS registered_cases_status_idx ON registered_cases (status);
CREATE INDEX IF NOT EXISTS public_submissions_status_idx ON public_submissions (status);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS public_submissions (
	id           TEXT PRIMARY KEY,
	submitted_by TEXT NOT NULL DEFAULT '',
	face_mesh    TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	mobile       TEXT NOT NULL,
	email        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL CHECK (status IN ('NOT_FOUND', 'FOUND')),
	birth_marks  TEXT NOT NULL DEFAULT '',
	submitted_on DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS registered_cases (
	id                 TEXT PRIMARY KEY,
	submitted_by       TEXT NOT NULL,
	name               TEXT NOT NULL,
	father_name        TEXT NOT NULL DEFAULT '',
	age                TEXT NOT NULL DEFAULT '',
	complainant_name   TEXT NOT NULL,
	complainant_mobile TEXT NOT NULL DEFAULT '',
	national_id        TEXT NOT NULL DEFAULT '',
	last_seen          TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	face_mesh          TEXT NOT NULL DEFAULT '',
	submitted_on       DATETIME NOT NULL,
	status             TEXT NOT NULL CHECK (status IN ('NOT_FOUND', 'FOUND')),
	birth_marks        TEXT NOT NULL DEFAULT '',
	matched_with       TEXT REFERENCES public_submissions (id),
	alert_draft        TEXT,
	match_explanation  TEXT,
	lead_priority      TEXT,
	witness_summary    TEXT,
	CHECK ((matched_with IS NULL) = (status = 'NOT_FOUND'))
);

CREATE UNIQUE INDEX IF NOT EXISTS registered_cases_matched_with_key
	ON registered_cases (matched_with) WHERE matched_with IS NOT NULL;
CREATE INDEX IF NOT EXISTS registered_cases_status_idx ON registered_cases (status);
CREATE INDEX IF NOT EXISTS public_submissions_status_idx ON public_submissions (status);
`
