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

// Package services contains the business logic that sits between the HTTP
// layer and the external clients. This file, `queries.go`, centralizes the SQL
// used by the search counter stores. `%s` placeholders take a fully qualified
// table name; values are always bound as query parameters.
package services

const (
	// QryMergeSearchCount increments the counter of @search_term in BigQuery,
	// inserting the row with the first result's movie id and poster URL when
	// the term has not been seen before.
	QryMergeSearchCount = "MERGE `%s` T " +
		"USING (SELECT @search_term AS search_term, @movie_id AS movie_id, @poster_url AS poster_url) S " +
		"ON T.search_term = S.search_term " +
		"WHEN MATCHED THEN UPDATE SET count = T.count + 1, updated_at = CURRENT_TIMESTAMP() " +
		"WHEN NOT MATCHED THEN INSERT (search_term, count, movie_id, poster_url, updated_at) " +
		"VALUES (S.search_term, 1, S.movie_id, S.poster_url, CURRENT_TIMESTAMP())"

	// QryTopSearchCounts lists the most searched terms.
	QryTopSearchCounts = "SELECT search_term, count, movie_id, poster_url, updated_at FROM `%s` ORDER BY count DESC, search_term ASC LIMIT @limit"

	// SQLiteCreateSearchCounts creates the local counter table. updated_at
	// holds unix seconds.
	SQLiteCreateSearchCounts = `
	CREATE TABLE IF NOT EXISTS search_counts (
		search_term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0,
		movie_id INTEGER NOT NULL DEFAULT 0,
		poster_url TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);`

	// SQLiteUpsertSearchCount mirrors QryMergeSearchCount.
	SQLiteUpsertSearchCount = `
	INSERT INTO search_counts (search_term, count, movie_id, poster_url, updated_at)
	VALUES (?, 1, ?, ?, ?)
	ON CONFLICT(search_term) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at`

	// SQLiteTopSearchCounts mirrors QryTopSearchCounts.
	SQLiteTopSearchCounts = `
	SELECT search_term, count, movie_id, poster_url, updated_at
	FROM search_counts ORDER BY count DESC, search_term ASC LIMIT ?`
)
