package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rifas/internal/config"
	"rifas/internal/models"
)

// RaffleDocument is the indexed view of a raffle
type RaffleDocument struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	Titulo      string       `json:"titulo"`
	Descricao   string       `json:"descricao,omitempty"`
	TipoRifa    string       `json:"tipo_rifa"`
	Status      string       `json:"status"`
	PrecoNumero models.Money `json:"preco_numero"`
	DataSorteio time.Time    `json:"data_sorteio"`
	Livres      int          `json:"livres"`
	Pagos       int          `json:"pagos"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewRaffleDocument builds the document from a raffle and its counters
func NewRaffleDocument(r *models.Raffle, livres, pagos int) RaffleDocument {
	doc := RaffleDocument{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Titulo:      r.Titulo,
		TipoRifa:    string(r.TipoRifa),
		Status:      string(r.Status),
		PrecoNumero: r.PrecoNumero,
		DataSorteio: r.DataSorteio,
		Livres:      livres,
		Pagos:       pagos,
		UpdatedAt:   time.Now(),
	}
	if r.Descricao != nil {
		doc.Descricao = *r.Descricao
	}
	return doc
}

// ElasticsearchClient indexes and searches raffles
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

func indexMapping() map[string]interface{} {
	text := map[string]interface{}{"type": "text", "analyzer": "brazilian_analyzer"}
	keyword := map[string]interface{}{"type": "keyword"}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"brazilian_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "brazilian_stop", "brazilian_stemmer"},
					},
				},
				"filter": map[string]interface{}{
					"brazilian_stop": map[string]interface{}{
						"type":      "stop",
						"stopwords": "_brazilian_",
					},
					"brazilian_stemmer": map[string]interface{}{
						"type":     "stemmer",
						"language": "brazilian",
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":        keyword,
				"tenant_id": keyword,
				"titulo": map[string]interface{}{
					"type":     "text",
					"analyzer": "brazilian_analyzer",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
					},
				},
				"descricao":    text,
				"tipo_rifa":    keyword,
				"status":       keyword,
				"preco_numero": map[string]interface{}{"type": "scaled_float", "scaling_factor": 100},
				"data_sorteio": map[string]interface{}{"type": "date"},
				"livres":       map[string]interface{}{"type": "integer"},
				"pagos":        map[string]interface{}{"type": "integer"},
				"updated_at":   map[string]interface{}{"type": "date"},
			},
		},
	}
}

func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mappingJSON, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(mappingJSON),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// buildSearchQuery scopes the text query to one tenant and optional status
func buildSearchQuery(tenantID, query, status string) map[string]interface{} {
	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"tenant_id": tenantID}},
	}
	if status != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"status": status},
		})
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if query != "" {
		boolQuery["must"] = []map[string]interface{}{
			{
				"multi_match": map[string]interface{}{
					"query":     query,
					"fields":    []string{"titulo^2", "descricao"},
					"fuzziness": "AUTO",
				},
			},
		}
	}

	return map[string]interface{}{"bool": boolQuery}
}

// SearchIDs returns the ids of matching raffles, best match first
func (c *ElasticsearchClient) SearchIDs(ctx context.Context, tenantID, query, status string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}

	searchJSON, err := json.Marshal(map[string]interface{}{
		"query":   buildSearchQuery(tenantID, query, status),
		"sort":    []map[string]interface{}{{"_score": map[string]interface{}{"order": "desc"}}, {"data_sorteio": map[string]interface{}{"order": "asc"}}},
		"size":    limit,
		"_source": []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(searchJSON),
	}.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID string `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

// IndexRaffle upserts a raffle document
func (c *ElasticsearchClient) IndexRaffle(ctx context.Context, doc RaffleDocument) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal raffle document: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(docJSON),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index raffle: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

func (c *ElasticsearchClient) DeleteRaffle(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: id,
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete raffle: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// Count returns the number of documents in the index
func (c *ElasticsearchClient) Count(ctx context.Context) (int64, error) {
	res, err := esapi.CountRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return 0, fmt.Errorf("failed to execute count: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count error: %s", res.String())
	}

	var response struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return response.Count, nil
}

// Refresh makes recent writes searchable
func (c *ElasticsearchClient) Refresh(ctx context.Context) error {
	res, err := esapi.IndicesRefreshRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to refresh index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("refresh error: %s", res.String())
	}
	return nil
}

func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	res, err := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}
	return nil
}

// escapeWildcard is used by callers that fall back to SQL ILIKE
func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ILikePattern returns a %query% pattern safe for ILIKE
func ILikePattern(query string) string {
	return "%" + escapeWildcard(strings.TrimSpace(query)) + "%"
}
