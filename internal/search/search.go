package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/campus_food/internal/models"
)

// DishIndex reads and writes dish documents in one Elasticsearch index.
type DishIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func searchBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
}

func (d *DishIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Dish, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := d.ES.Search(
		d.ES.Search.WithContext(ctx),
		d.ES.Search.WithIndex(d.Index),
		d.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search error %s: %s", res.Status(), body)
	}

	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) (int64, []models.Dish, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Dish `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	dishes := make([]models.Dish, len(out.Hits.Hits))
	for i, hit := range out.Hits.Hits {
		dishes[i] = hit.Source
	}
	return out.Hits.Total.Value, dishes, nil
}

func (d *DishIndex) IndexDish(ctx context.Context, dish models.Dish) error {
	body, err := json.Marshal(dish)
	if err != nil {
		return fmt.Errorf("encode dish: %w", err)
	}

	res, err := d.ES.Index(
		d.Index,
		bytes.NewReader(body),
		d.ES.Index.WithContext(ctx),
		d.ES.Index.WithDocumentID(strconv.FormatUint(uint64(dish.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index dish %d: %w", dish.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index dish %d: %s", dish.ID, res.Status())
	}
	return nil
}
