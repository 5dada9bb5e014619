// Why this file: ./internal/rag/retriever.go
// This is the knowledge retriever: qdrant vector search over the
// agricultural knowledge collection, always hard-filtered to one named
// domain so soil answers never leak scheme text. The dispatcher walks a
// per-intent priority list of domains and accepts the first one whose
// returned text clears a minimum length.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/yourusername/krishimitra-assistant/models"
)

// MinContextLength is the shortest retrieved text the dispatcher treats
// as a usable answer.
const MinContextLength = 50

// DomainsForIntent maps an intent onto its prioritized knowledge
// domains. Order matters: the first domain with usable text wins.
var DomainsForIntent = map[models.Intent][]string{
	models.IntentSoil:   {"soil_interpretation", "soil_knowledge"},
	models.IntentScheme: {"govt_schemes"},
	models.IntentCropAdvice: {
		"crop_recommendation", "modern_farming", "organic_farming",
		"general_agri", "historic_practices",
	},
	models.IntentGeneral: {
		"crop_recommendation", "modern_farming", "organic_farming",
		"general_agri", "historic_practices",
	},
}

// Enrichment domains layered onto tool results, best-effort.
const (
	DomainPestDisease     = "pest_disease"
	DomainWeatherAdvisory = "weather_advisory"
	DomainMarketKnowledge = "market_knowledge"
)

// Config holds the knowledge-index connection settings.
type Config struct {
	Host       string
	Port       int
	Collection string
}

// Retriever searches the domain-partitioned knowledge index.
type Retriever struct {
	config   Config
	conn     *grpc.ClientConn
	points   qdrant.PointsClient
	embedder Embedder
}

// NewRetriever connects to qdrant over gRPC and verifies the link.
func NewRetriever(config Config, embedder Embedder) (*Retriever, error) {
	conn, err := grpc.Dial(
		fmt.Sprintf("%s:%d", config.Host, config.Port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}

	r := &Retriever{
		config:   config,
		conn:     conn,
		points:   qdrant.NewPointsClient(conn),
		embedder: embedder,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := qdrant.NewCollectionsClient(conn).List(ctx, &qdrant.ListCollectionsRequest{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("qdrant connection test failed: %w", err)
	}

	return r, nil
}

// RetrieveContext returns up to k matching knowledge snippets for the
// query, restricted to the given domain, joined as one text block.
func (r *Retriever) RetrieveContext(ctx context.Context, query, domain string, k int) (string, error) {
	if k <= 0 {
		k = 3
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}

	// The domain filter is mandatory: a match outside the requested
	// domain is worse than no match.
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "domain",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: domain},
						},
					},
				},
			},
		},
	}

	resp, err := r.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: r.config.Collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         filter,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return "", fmt.Errorf("qdrant search: %w", err)
	}

	var parts []string
	for _, point := range resp.Result {
		if payload, ok := point.Payload["text"]; ok {
			if text := payload.GetStringValue(); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}

// ContextSource is the single-domain retrieval call AcrossDomains walks
// over. *Retriever satisfies it; tests substitute their own.
type ContextSource interface {
	RetrieveContext(ctx context.Context, query, domain string, k int) (string, error)
}

// AcrossDomains walks the domain list in order and returns the first
// context whose length clears MinContextLength, along with the domain
// that produced it. Failed domains are skipped, not fatal.
func AcrossDomains(ctx context.Context, source ContextSource, query string, domains []string, k int) (string, string) {
	for _, domain := range domains {
		text, err := source.RetrieveContext(ctx, query, domain, k)
		if err != nil {
			continue
		}
		if len(strings.TrimSpace(text)) > MinContextLength {
			return text, domain
		}
	}
	return "", ""
}

// RetrieveAcrossDomains walks the domain priority list against the live
// index.
func (r *Retriever) RetrieveAcrossDomains(ctx context.Context, query string, domains []string, k int) (string, string) {
	return AcrossDomains(ctx, r, query, domains, k)
}

// Close releases the gRPC connection.
func (r *Retriever) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
