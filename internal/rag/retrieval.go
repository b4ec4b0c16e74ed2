package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Searcher is the retrieval contract: at most topK chunks, most relevant
// first. Zero matches is an empty slice, not an error.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]types.Chunk, error)
}

// prefetchFactor widens each hybrid branch before fusion.
const prefetchFactor = 4

// Retriever runs hybrid queries against a Qdrant collection.
type Retriever struct {
	client     *qdrant.Client
	embedder   Embedder
	collection string
	vectorName string
	titleField string
	chunkField string
	minScore   float32
	timeout    time.Duration
	logger     *zap.Logger
}

// RetrieverConfig holds configuration for the retriever.
type RetrieverConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	VectorName string
	TitleField string
	ChunkField string
	MinScore   float32
	Timeout    time.Duration
}

// NewRetriever connects to Qdrant.
func NewRetriever(cfg RetrieverConfig, embedder Embedder, logger *zap.Logger) (*Retriever, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithChainUnaryInterceptor(loggingInterceptor(logger)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return newRetriever(client, embedder, cfg, logger), nil
}

func newRetriever(client *qdrant.Client, embedder Embedder, cfg RetrieverConfig, logger *zap.Logger) *Retriever {
	if cfg.TitleField == "" {
		cfg.TitleField = "title"
	}
	if cfg.ChunkField == "" {
		cfg.ChunkField = "chunk"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Retriever{
		client:     client,
		embedder:   embedder,
		collection: cfg.Collection,
		vectorName: cfg.VectorName,
		titleField: cfg.TitleField,
		chunkField: cfg.ChunkField,
		minScore:   cfg.MinScore,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

// Search embeds the query and fuses a dense branch with a full-text
// filtered dense branch using reciprocal rank fusion.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]types.Chunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.Chunk{}, nil
	}
	if topK <= 0 {
		return nil, &types.RetrievalError{Op: "search", Err: fmt.Errorf("top_k must be positive, got %d", topK)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &types.RetrievalError{Op: "embed query", Err: err}
	}

	points, err := r.client.Query(ctx, r.buildQuery(query, vec, topK))
	if err != nil {
		return nil, &types.RetrievalError{Op: "query", Err: err}
	}

	chunks, err := r.project(points)
	if err != nil {
		return nil, &types.RetrievalError{Op: "decode results", Err: err}
	}

	r.logger.Info("Search completed",
		zap.Int("results", len(chunks)),
		zap.String("query_preview", truncateString(query, 50)))

	return chunks, nil
}

// buildQuery assembles the hybrid QueryPoints request.
func (r *Retriever) buildQuery(query string, vec []float32, topK int) *qdrant.QueryPoints {
	limit := uint64(topK)
	prefetchLimit := uint64(topK * prefetchFactor)

	var using *string
	if r.vectorName != "" {
		using = qdrant.PtrOf(r.vectorName)
	}
	var threshold *float32
	if r.minScore > 0 {
		threshold = qdrant.PtrOf(r.minScore)
	}

	return &qdrant.QueryPoints{
		CollectionName: r.collection,
		Prefetch: []*qdrant.PrefetchQuery{
			{
				Query:          qdrant.NewQuery(vec...),
				Using:          using,
				Limit:          &prefetchLimit,
				ScoreThreshold: threshold,
			},
			{
				Query: qdrant.NewQuery(vec...),
				Using: using,
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatchText(r.chunkField, query)},
				},
				Limit: &prefetchLimit,
			},
		},
		Query:       qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		Limit:       &limit,
		WithPayload: qdrant.NewWithPayloadInclude(r.titleField, r.chunkField),
	}
}

// project keeps the title and chunk fields. Points without chunk text are
// skipped; a result set where every point lacks it is malformed.
func (r *Retriever) project(points []*qdrant.ScoredPoint) ([]types.Chunk, error) {
	chunks := make([]types.Chunk, 0, len(points))
	for _, p := range points {
		text, ok := getPayloadString(p.GetPayload(), r.chunkField)
		if !ok {
			r.logger.Warn("Point without chunk text", zap.String("point_id", p.GetId().String()))
			continue
		}
		title, _ := getPayloadString(p.GetPayload(), r.titleField)
		chunks = append(chunks, types.Chunk{Title: title, Chunk: text})
	}

	if len(points) > 0 && len(chunks) == 0 {
		return nil, errors.New("no result carries field " + r.chunkField)
	}
	return chunks, nil
}

// HealthCheck pings the Qdrant server.
func (r *Retriever) HealthCheck(ctx context.Context) error {
	if _, err := r.client.HealthCheck(ctx); err != nil {
		return &types.RetrievalError{Op: "health check", Err: err}
	}
	return nil
}

// Close releases the gRPC connection.
func (r *Retriever) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// CollectionName returns the configured collection name.
func (r *Retriever) CollectionName() string {
	return r.collection
}

// loggingInterceptor logs every Qdrant RPC.
func loggingInterceptor(logger *zap.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger.Debug("Qdrant call",
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("code", status.Code(err).String()))
		return err
	}
}

// getPayloadString extracts a non-empty string value from a Qdrant payload.
func getPayloadString(payload map[string]*qdrant.Value, key string) (string, bool) {
	if val, ok := payload[key]; ok {
		if strVal := val.GetStringValue(); strVal != "" {
			return strVal, true
		}
	}
	return "", false
}

// truncateString truncates a string to maxLen characters without splitting a rune.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
