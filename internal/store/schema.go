package store

// Booleans are stored as 0/1 integers in both dialects so every query runs
// unchanged on SQLite and Postgres.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS quiz_sessions (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  topic TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  answers_json TEXT NOT NULL DEFAULT '[]',
  score INTEGER,
  passed INTEGER,
  completed INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS quiz_sessions_one_active
  ON quiz_sessions (user_id, topic) WHERE completed = 0;

CREATE TABLE IF NOT EXISTS mastery (
  user_id TEXT NOT NULL,
  topic TEXT NOT NULL,
  mastered_at INTEGER NOT NULL,
  PRIMARY KEY (user_id, topic)
);

CREATE TABLE IF NOT EXISTS assessment_records (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  session_id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  topic TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  score INTEGER NOT NULL,
  passed INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS assessment_records_by_key
  ON assessment_records (user_id, topic, created_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS quiz_sessions (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  topic TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  answers_json TEXT NOT NULL DEFAULT '[]',
  score INTEGER,
  passed SMALLINT,
  completed SMALLINT NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS quiz_sessions_one_active
  ON quiz_sessions (user_id, topic) WHERE completed = 0;

CREATE TABLE IF NOT EXISTS mastery (
  user_id TEXT NOT NULL,
  topic TEXT NOT NULL,
  mastered_at BIGINT NOT NULL,
  PRIMARY KEY (user_id, topic)
);

CREATE TABLE IF NOT EXISTS assessment_records (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  session_id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  topic TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  score INTEGER NOT NULL,
  passed SMALLINT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS assessment_records_by_key
  ON assessment_records (user_id, topic, created_at);
`
