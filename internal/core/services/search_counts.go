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
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"google.golang.org/api/iterator"
)

// BigQuerySearchCountStore keeps the search counter in a BigQuery table with
// the columns of model.SearchCount.
type BigQuerySearchCountStore struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	TableName      string
}

// GetFQN returns the table name in the dotted form used inside SQL.
func (s *BigQuerySearchCountStore) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.TableName).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

func (s *BigQuerySearchCountStore) Increment(ctx context.Context, event *model.SearchEvent) error {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryMergeSearchCount, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "search_term", Value: event.SearchTerm},
		{Name: "movie_id", Value: int64(event.MovieID)},
		{Name: "poster_url", Value: event.PosterURL},
	}
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start merge: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for merge: %w", err)
	}
	return status.Err()
}

func (s *BigQuerySearchCountStore) Top(ctx context.Context, limit int) ([]*model.SearchCount, error) {
	out := make([]*model.SearchCount, 0)

	q := s.BigqueryClient.Query(fmt.Sprintf(QryTopSearchCounts, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "limit", Value: int64(limit)}}
	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}

	for {
		r := &model.SearchCount{}
		err := itr.Next(r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
