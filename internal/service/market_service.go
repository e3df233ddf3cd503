// Package service implements the engine's caller-facing operations:
// market discovery, order validation and placement, and position queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
	"github.com/SidharthK2/polymarket-agent/internal/platform/polymarket"
	"github.com/SidharthK2/polymarket-agent/internal/search"
)

// ListingFetcher pulls raw listings from the discovery API.
type ListingFetcher interface {
	FetchListings(ctx context.Context, filter polymarket.ListingFilter) ([]polymarket.RawMarket, error)
}

// MarketDetailer pulls full market detail and order books from the trading
// API.
type MarketDetailer interface {
	GetMarket(ctx context.Context, conditionID string) (polymarket.RawMarket, error)
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error)
}

// SearchOptions tune one discovery call. Zero values fall back to the
// service's configured defaults.
type SearchOptions struct {
	Category string
	SortBy   string
	Limit    int
}

// MarketService drives discovery: fetch, normalize, score, rank.
type MarketService struct {
	gamma   ListingFetcher
	clob    MarketDetailer
	profile search.Profile
	level   search.KnowledgeLevel
	// fetchLimit is the raw listing page size requested per query.
	fetchLimit int
	// maxFanout bounds how many expanded queries one interest search runs.
	maxFanout    int
	defaultLimit int
	logger       *slog.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(
	gamma ListingFetcher,
	clob MarketDetailer,
	profile search.Profile,
	level search.KnowledgeLevel,
	maxFanout, defaultLimit int,
	logger *slog.Logger,
) *MarketService {
	if maxFanout < 1 {
		maxFanout = 8
	}
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &MarketService{
		gamma:        gamma,
		clob:         clob,
		profile:      profile,
		level:        level,
		fetchLimit:   100,
		maxFanout:    maxFanout,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// SearchByQuery discovers markets matching a free-text query. An exhausted
// upstream degrades to an empty result: "no markets found" is a valid
// outcome for a search, unlike a specific-market lookup.
func (s *MarketService) SearchByQuery(ctx context.Context, query string, opts SearchOptions) ([]domain.Market, error) {
	markets, err := s.searchOne(ctx, query, opts.Category)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			s.logger.WarnContext(ctx, "market_service: listings unavailable, degrading to empty",
				slog.String("query", query),
				slog.String("error", err.Error()),
			)
			return []domain.Market{}, nil
		}
		return nil, err
	}

	strategy := search.ParseStrategy(opts.SortBy)
	markets = search.Rank(markets, strategy)
	markets = search.Truncate(markets, s.limitOrDefault(opts.Limit))

	s.logger.InfoContext(ctx, "market_service: search complete",
		slog.String("query", query),
		slog.String("sort", string(strategy)),
		slog.Int("results", len(markets)),
	)
	return markets, nil
}

// SearchByInterests expands user interests into a query set and searches
// each concurrently, merging duplicates by listing ID and keeping the
// highest-scoring copy.
func (s *MarketService) SearchByInterests(ctx context.Context, interests []string, opts SearchOptions) ([]domain.Market, error) {
	if len(interests) == 0 {
		return []domain.Market{}, nil
	}

	queries := search.Expand(interests, s.level)
	if len(queries) > s.maxFanout {
		queries = queries[:s.maxFanout]
	}

	batches := make([][]domain.Market, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			found, err := s.searchOne(gctx, q, opts.Category)
			if err != nil {
				if errors.Is(err, domain.ErrUpstreamUnavailable) {
					s.logger.WarnContext(gctx, "market_service: interest query degraded to empty",
						slog.String("query", q),
						slog.String("error", err.Error()),
					)
					return nil
				}
				return err
			}
			mu.Lock()
			batches[i] = found
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := search.MergeByID(batches...)
	merged = search.Rank(merged, search.ParseStrategy(opts.SortBy))
	merged = search.Truncate(merged, s.limitOrDefault(opts.Limit))

	s.logger.InfoContext(ctx, "market_service: interest search complete",
		slog.Int("interests", len(interests)),
		slog.Int("queries", len(queries)),
		slog.Int("results", len(merged)),
	)
	return merged, nil
}

// GetMarket returns the full canonical detail (token IDs, outcomes) for a
// condition ID. Unlike search there is no empty default here: an exhausted
// upstream or unknown ID fails the caller.
func (s *MarketService) GetMarket(ctx context.Context, conditionID string) (domain.Market, error) {
	raw, err := s.clob.GetMarket(ctx, conditionID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market %q: %w", conditionID, err)
	}
	m, ok := polymarket.Normalize(raw)
	if !ok {
		return domain.Market{}, fmt.Errorf("market_service: market %q: %w", conditionID, domain.ErrNotFound)
	}
	return m, nil
}

// GetOrderBook returns a fresh book snapshot for a token.
func (s *MarketService) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderbookSnapshot, error) {
	snap, err := s.clob.GetOrderBook(ctx, tokenID)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("market_service: get order book %q: %w", tokenID, err)
	}
	return snap, nil
}

// searchOne runs the fetch → normalize → score → filter pipeline for a
// single query. Malformed listings are dropped per-record; one bad record
// never fails the batch.
func (s *MarketService) searchOne(ctx context.Context, query, category string) ([]domain.Market, error) {
	active := true
	closed := false
	raws, err := s.gamma.FetchListings(ctx, polymarket.ListingFilter{
		Limit:  s.fetchLimit,
		Active: &active,
		Closed: &closed,
	})
	if err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, len(raws))
	for _, raw := range raws {
		m, ok := polymarket.Normalize(raw)
		if !ok {
			continue
		}
		m.RelevanceScore = search.Score(m.Question, m.Category, query, category)
		markets = append(markets, m)
	}

	return search.Filter(markets, s.profile.MinScore, s.profile.MinVolume), nil
}

func (s *MarketService) limitOrDefault(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	return limit
}
