package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/quizreport/internal/model"
)

// ExportResults builds an export of every stored result, oldest first.
func (s *Store) ExportResults() (model.ResultsExport, error) {
	list, err := s.ListResults()
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list results: %w", err)
	}

	results := make([]model.StoredResult, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		res, err := s.GetResult(list[i].ID)
		if err != nil {
			return model.ResultsExport{}, fmt.Errorf("get result %s: %w", list[i].ID, err)
		}
		results = append(results, res)
	}

	return model.ResultsExport{
		ExportedAt: time.Now().UTC(),
		Count:      len(results),
		Results:    results,
	}, nil
}
