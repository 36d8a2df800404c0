package main

import (
	"encoding/json"
	"fmt"
	"os"

	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/store"
)

// fixture is an offline data set: issue documents, browse grants and view
// members.
type fixture struct {
	Issues []model.IssueDoc    `json:"issues"`
	Grants []store.Grant       `json:"grants"`
	Views  map[string][]string `json:"views"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	for i, doc := range fx.Issues {
		if doc.Key == "" {
			return nil, fmt.Errorf("fixture issue #%d has no key", i)
		}
	}
	return &fx, nil
}
