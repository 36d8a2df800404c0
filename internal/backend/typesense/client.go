package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"basegraph.app/issuesearch/internal/model"
)

type ClientConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type clientSearcher struct {
	client     *typesense.Client
	collection string
}

// NewSearcher returns a Searcher over one collection of a Typesense server.
func NewSearcher(cfg ClientConfig) Searcher {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(cfg.Timeout),
	)
	return &clientSearcher{client: client, collection: cfg.Collection}
}

func (s *clientSearcher) Search(ctx context.Context, p Params) (*Result, error) {
	params := &api.SearchCollectionParams{
		Q:             pointer.String("*"),
		QueryBy:       pointer.String(model.FieldKey),
		IncludeFields: pointer.String(model.FieldKey),
		Page:          pointer.Int(max(p.Page, 1)),
		PerPage:       pointer.Int(p.PerPage),
	}
	if p.FilterBy != "" {
		params.FilterBy = pointer.String(p.FilterBy)
	}
	if p.SortBy != "" {
		params.SortBy = pointer.String(p.SortBy)
	}
	if p.FacetBy != "" {
		params.FacetBy = pointer.String(p.FacetBy)
		params.MaxFacetValues = pointer.Int(p.MaxFacetValues)
	}

	res, err := s.client.Collection(s.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", s.collection, err)
	}
	return convertResult(res), nil
}

func convertResult(res *api.SearchResult) *Result {
	out := &Result{
		Facets: map[string][]FacetCount{},
		Stats:  map[string]FacetStats{},
	}
	if res.Found != nil {
		out.Found = int64(*res.Found)
	}
	if res.Hits != nil {
		for _, h := range *res.Hits {
			if h.Document == nil {
				continue
			}
			if key, ok := (*h.Document)[model.FieldKey].(string); ok {
				out.Keys = append(out.Keys, key)
			}
		}
	}
	if res.FacetCounts == nil {
		return out
	}
	for _, fc := range *res.FacetCounts {
		if fc.FieldName == nil {
			continue
		}
		field := *fc.FieldName
		if fc.Counts != nil {
			for _, c := range *fc.Counts {
				if c.Value == nil || c.Count == nil {
					continue
				}
				out.Facets[field] = append(out.Facets[field], FacetCount{Value: *c.Value, Count: int64(*c.Count)})
			}
		}
		if fc.Stats != nil {
			var stats FacetStats
			if fc.Stats.Min != nil {
				v := float64(*fc.Stats.Min)
				stats.Min = &v
			}
			if fc.Stats.Max != nil {
				v := float64(*fc.Stats.Max)
				stats.Max = &v
			}
			out.Stats[field] = stats
		}
	}
	return out
}
