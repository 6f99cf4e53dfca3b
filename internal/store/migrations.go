package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions - one per coaching run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'live' CHECK(source IN ('live', 'replay')),
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Sets - completed set summaries
		`CREATE TABLE IF NOT EXISTS sets (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			activity TEXT NOT NULL,
			set_idx INTEGER NOT NULL,
			reps_target INTEGER NOT NULL,
			reps_counted INTEGER NOT NULL,
			rep_scores TEXT NOT NULL DEFAULT '[]',
			form_stability REAL NOT NULL,
			symmetry_index REAL NOT NULL,
			final_percent REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Reps - every detected repetition, counted or not
		`CREATE TABLE IF NOT EXISTS reps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			activity TEXT NOT NULL,
			set_idx INTEGER NOT NULL,
			rep_index INTEGER NOT NULL,
			t0 REAL NOT NULL,
			t1 REAL NOT NULL,
			counted INTEGER NOT NULL,
			score REAL NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			bands TEXT NOT NULL DEFAULT '{}',
			match TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sets_session_id ON sets(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reps_session_id ON reps(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
