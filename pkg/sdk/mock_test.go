package feedrank

import (
	"context"
	"io"

	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/request"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	domrefresh "github.com/kailas-cloud/feedrank/internal/domain/refresh"
	healthuc "github.com/kailas-cloud/feedrank/internal/usecase/health"
)

// --- recommendUseCase mock ---

type mockRecommendUC struct {
	dim           int
	recommendFn   func(ctx context.Context, req *request.Request) ([]result.Result, error)
	forUserFn     func(ctx context.Context, userID string, topN int, m mode.Mode) ([]result.Result, error)
	recommendText func(ctx context.Context, text string, topN int, m mode.Mode) ([]result.Result, error)
}

func (m *mockRecommendUC) Recommend(ctx context.Context, req *request.Request) ([]result.Result, error) {
	return m.recommendFn(ctx, req)
}

func (m *mockRecommendUC) RecommendForUser(
	ctx context.Context, userID string, topN int, md mode.Mode,
) ([]result.Result, error) {
	return m.forUserFn(ctx, userID, topN, md)
}

func (m *mockRecommendUC) RecommendText(
	ctx context.Context, text string, topN int, md mode.Mode,
) ([]result.Result, error) {
	return m.recommendText(ctx, text, topN, md)
}

func (m *mockRecommendUC) Dimensions() int { return m.dim }

// --- refreshUseCase mock ---

type mockRefreshUC struct {
	postFn func(ctx context.Context, id string) error
	userFn func(ctx context.Context, id string) error
	allFn  func(ctx context.Context) (domrefresh.Summary, error)
}

func (m *mockRefreshUC) RefreshPost(ctx context.Context, id string) error { return m.postFn(ctx, id) }

func (m *mockRefreshUC) RefreshUser(ctx context.Context, id string) error { return m.userFn(ctx, id) }

func (m *mockRefreshUC) RefreshAll(ctx context.Context) (domrefresh.Summary, error) {
	return m.allFn(ctx)
}

// --- importUseCase mock ---

type mockImportUC struct {
	postsFn func(ctx context.Context, r io.Reader) (int, error)
	usersFn func(ctx context.Context, r io.Reader) (int, error)
}

func (m *mockImportUC) ImportPosts(ctx context.Context, r io.Reader) (int, error) {
	return m.postsFn(ctx, r)
}

func (m *mockImportUC) ImportUsers(ctx context.Context, r io.Reader) (int, error) {
	return m.usersFn(ctx, r)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(rec recommendUseCase, ref refreshUseCase, imp importUseCase) *Client {
	return &Client{
		recommendSvc: rec,
		refreshSvc:   ref,
		importSvc:    imp,
	}
}
