// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jaycherian/movie-mixer/internal/core/model"

	_ "modernc.org/sqlite"
)

// SQLiteSearchCountStore keeps the search counter in a local SQLite file. It
// is the backend used outside Google Cloud.
type SQLiteSearchCountStore struct {
	db *sql.DB
}

// NewSQLiteSearchCountStore opens (and creates if needed) the database at
// path.
func NewSQLiteSearchCountStore(ctx context.Context, path string) (*SQLiteSearchCountStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single writer keeps concurrent increments from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, SQLiteCreateSearchCounts); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &SQLiteSearchCountStore{db: db}, nil
}

func (s *SQLiteSearchCountStore) Increment(ctx context.Context, event *model.SearchEvent) error {
	updatedAt := event.OccurredAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, SQLiteUpsertSearchCount,
		event.SearchTerm, event.MovieID, event.PosterURL, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert search count: %w", err)
	}
	return nil
}

func (s *SQLiteSearchCountStore) Top(ctx context.Context, limit int) ([]*model.SearchCount, error) {
	out := make([]*model.SearchCount, 0)

	rows, err := s.db.QueryContext(ctx, SQLiteTopSearchCounts, limit)
	if err != nil {
		return out, fmt.Errorf("failed to query search counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &model.SearchCount{}
		var updatedAt int64
		if err := rows.Scan(&r.SearchTerm, &r.Count, &r.MovieID, &r.PosterURL, &updatedAt); err != nil {
			return out, fmt.Errorf("failed to scan search count: %w", err)
		}
		r.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSearchCountStore) Close() error {
	return s.db.Close()
}
