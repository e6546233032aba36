// Package search keeps an Elasticsearch index of products in step with the
// catalog and serves fuzzy product search. Indexing is best-effort: a
// failed index write is logged, never surfaced to the caller.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/retailpos/backoffice/internal/logging"
	"github.com/retailpos/backoffice/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return client, nil
}

type Products struct {
	ES    *elasticsearch.Client
	Index string
}

// document is the indexed shape: searchable text plus the visibility flags
// the query filters on.
type document struct {
	ID          uint    `json:"id"`
	StoreID     uint    `json:"store_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	IsActive    bool    `json:"is_active"`
	ShowInWeb   bool    `json:"show_in_web"`
}

func (p *Products) IndexProduct(ctx context.Context, prod *models.Product) {
	l := logging.FromContext(ctx).With("svc", "search.index", "product_id", prod.ID)

	doc := document{
		ID:          prod.ID,
		StoreID:     prod.StoreID,
		Name:        prod.Name,
		Description: prod.Description,
		Price:       prod.Price,
		IsActive:    prod.IsActive,
		ShowInWeb:   prod.ShowInWeb,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		l.Error("index_marshal_failed", "error", err)
		return
	}

	res, err := p.ES.Index(
		p.Index,
		bytes.NewReader(data),
		p.ES.Index.WithContext(ctx),
		p.ES.Index.WithDocumentID(strconv.FormatUint(uint64(prod.ID), 10)),
	)
	if err != nil {
		l.Error("index_failed", "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Error("index_failed", "status", res.Status())
	}
}

func (p *Products) DeleteProduct(ctx context.Context, id uint) {
	l := logging.FromContext(ctx).With("svc", "search.delete", "product_id", id)

	res, err := p.ES.Delete(
		p.Index,
		strconv.FormatUint(uint64(id), 10),
		p.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		l.Error("delete_failed", "error", err)
		return
	}
	res.Body.Close()
}

type Result struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
}

// Search runs a fuzzy multi_match over name and description. webOnly
// restricts hits to active, web-visible products (the anonymous/customer
// view).
func (p *Products) Search(ctx context.Context, query string, webOnly bool, from, size int) (*Result, error) {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"name^2", "description"},
			"fuzziness": "AUTO",
		},
	}
	boolQuery := map[string]any{"must": must}
	if webOnly {
		boolQuery["filter"] = []any{
			map[string]any{"term": map[string]any{"is_active": true}},
			map[string]any{"term": map[string]any{"show_in_web": true}},
		}
	}
	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  from,
		"size":  size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := p.ES.Search(
		p.ES.Search.WithContext(ctx),
		p.ES.Search.WithIndex(p.Index),
		p.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return &Result{Total: r.Hits.Total.Value, Products: prods}, nil
}
