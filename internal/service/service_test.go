package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/threaddump-analysis/internal/cache"
	"github.com/threaddump-analysis/internal/mock"
	"github.com/threaddump-analysis/internal/repository"
	"github.com/threaddump-analysis/internal/testutil"
	"github.com/threaddump-analysis/pkg/config"
	apperrors "github.com/threaddump-analysis/pkg/errors"
	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/utils"
)

var fixedTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, cfg *config.Config, opts ...Option) *Service {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	opts = append([]Option{
		WithClock(utils.NewMockClock(fixedTime)),
		WithIDGenerator(func() string { return "id-1" }),
	}, opts...)

	svc, err := New(cfg, &utils.NullLogger{}, opts...)
	require.NoError(t, err)
	return svc
}

func TestService_New(t *testing.T) {
	t.Run("WithLogger", func(t *testing.T) {
		svc, err := New(config.Default(), utils.NewDefaultLogger(utils.LevelInfo, nil))
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Equal(t, ServiceStats{}, svc.Stats())
	})

	t.Run("WithoutLoggerOrConfig", func(t *testing.T) {
		svc, err := New(nil, nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.NotNil(t, svc.config)
	})
}

func TestService_AnalyzeDump_Validation(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.MaxDumpBytes = 16
	svc := newTestService(t, cfg)
	ctx := context.Background()

	t.Run("UnsupportedExtension", func(t *testing.T) {
		_, err := svc.AnalyzeDump(ctx, "dump.hprof", []byte("x"))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeUnsupportedFile, apperrors.GetErrorCode(err))
	})

	t.Run("TooLarge", func(t *testing.T) {
		_, err := svc.AnalyzeDump(ctx, "dump.txt", []byte(strings.Repeat("x", 17)))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeDumpTooLarge, apperrors.GetErrorCode(err))
	})

	t.Run("EmptyDump", func(t *testing.T) {
		_, err := svc.AnalyzeDump(ctx, "dump.txt", []byte("no threads"))
		require.Error(t, err)
		assert.True(t, apperrors.IsEmptyDump(err))
	})
}

func TestService_AnalyzeDump(t *testing.T) {
	content := testutil.LoadFixture(t, "jstack_deadlock.txt")

	repo := &mock.MockAnalysisRepository{}
	repo.ExpectSave(nil)

	store := &mock.MockStorage{}
	store.ExpectUpload("dumps/id-1/jstack_deadlock.txt", nil)
	store.ExpectUpload("analyses/id-1/summary.json", nil)

	c := &mock.MockCache{}
	key := cache.ContentKey(content)
	c.ExpectGet(key, cache.ErrCacheMiss)
	c.ExpectSet(key, nil)

	svc := newTestService(t, nil, WithRepository(repo), WithStorage(store), WithCache(c))

	rec, err := svc.AnalyzeDump(context.Background(), "jstack_deadlock.txt", content)
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "jstack_deadlock.txt", rec.FileName)
	assert.Equal(t, cache.ContentHash(content), rec.ContentHash)
	assert.Equal(t, fixedTime, rec.CreatedAt)
	assert.False(t, rec.Cached)
	assert.Equal(t, 7, rec.Summary.TotalThreads)
	assert.Equal(t, 2, rec.Summary.BlockedThreads)
	require.Len(t, rec.Suggestions, 2)
	for _, s := range rec.Suggestions {
		assert.Equal(t, "id-1", s.AnalysisID)
	}

	repo.AssertExpectations(t)
	store.AssertExpectations(t)
	c.AssertExpectations(t)
	assert.Equal(t, int64(1), svc.Stats().Analyzed)
}

func TestService_AnalyzeDump_CacheHit(t *testing.T) {
	content := testutil.LoadFixture(t, "jstack_stuck.txt")

	repo := &mock.MockAnalysisRepository{}
	repo.ExpectSave(nil).Once()

	svc := newTestService(t, nil, WithRepository(repo), WithCache(cache.NewMemoryCache(time.Minute)))
	ctx := context.Background()

	first, err := svc.AnalyzeDump(ctx, "a.txt", content)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.AnalyzeDump(ctx, "b.log", content)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a.txt", second.FileName)
	assert.Equal(t, first.Summary.TotalThreads, second.Summary.TotalThreads)

	repo.AssertNumberOfCalls(t, "Save", 1)
	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Analyzed)
	assert.Equal(t, int64(1), stats.CacheHits)
}

func TestService_AnalyzeDump_CacheErrorFallsThrough(t *testing.T) {
	content := testutil.LoadFixture(t, "jstack_stuck.txt")

	c := &mock.MockCache{}
	c.ExpectGet(cache.ContentKey(content), errors.New("connection refused"))
	c.ExpectSet(cache.ContentKey(content), errors.New("connection refused"))

	svc := newTestService(t, nil, WithCache(c))

	rec, err := svc.AnalyzeDump(context.Background(), "dump.txt", content)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Summary.TotalThreads)
	c.AssertExpectations(t)
}

func TestService_AnalyzeDump_SaveFailure(t *testing.T) {
	repo := &mock.MockAnalysisRepository{}
	repo.ExpectSave(errors.New("disk full"))

	svc := newTestService(t, nil, WithRepository(repo))

	_, err := svc.AnalyzeDump(context.Background(), "dump.txt", testutil.LoadFixture(t, "jstack_stuck.txt"))
	require.Error(t, err)
	assert.True(t, apperrors.IsDatabaseError(err))
}

func TestService_AnalyzeDump_ArchiveFailureIsNotFatal(t *testing.T) {
	store := &mock.MockStorage{}
	store.ExpectAnyUpload(errors.New("bucket gone"))

	svc := newTestService(t, nil, WithStorage(store))

	rec, err := svc.AnalyzeDump(context.Background(), "dump.txt", testutil.LoadFixture(t, "jstack_stuck.txt"))
	require.NoError(t, err)
	assert.NotNil(t, rec)
	store.AssertNumberOfCalls(t, "Upload", 2)
}

func TestService_GetAnalysis(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo := &mock.MockAnalysisRepository{}
		repo.ExpectGetByID("id-1", &model.AnalysisRecord{ID: "id-1"}, nil)

		rec, err := newTestService(t, nil, WithRepository(repo)).GetAnalysis(ctx, "id-1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", rec.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := &mock.MockAnalysisRepository{}
		repo.ExpectGetByID("missing", nil, repository.ErrNotFound)

		_, err := newTestService(t, nil, WithRepository(repo)).GetAnalysis(ctx, "missing")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("DatabaseError", func(t *testing.T) {
		repo := &mock.MockAnalysisRepository{}
		repo.ExpectGetByID("id-1", nil, errors.New("timeout"))

		_, err := newTestService(t, nil, WithRepository(repo)).GetAnalysis(ctx, "id-1")
		assert.True(t, apperrors.IsDatabaseError(err))
	})

	t.Run("NoRepository", func(t *testing.T) {
		_, err := newTestService(t, nil).GetAnalysis(ctx, "id-1")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestService_ListAnalyses(t *testing.T) {
	repo := &mock.MockAnalysisRepository{}
	repo.ExpectListRecent(5, []*model.AnalysisRecord{{ID: "b"}, {ID: "a"}}, nil)

	recs, err := newTestService(t, nil, WithRepository(repo)).ListAnalyses(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID)

	recs, err = newTestService(t, nil).ListAnalyses(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recs)

	failing := &mock.MockAnalysisRepository{}
	failing.On("ListRecent", testifymock.Anything, 5).Return(nil, errors.New("boom"))
	_, err = newTestService(t, nil, WithRepository(failing)).ListAnalyses(context.Background(), 5)
	assert.True(t, apperrors.IsDatabaseError(err))
}

func TestService_Initialize_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Enabled = true
	cfg.Database.Type = "sqlite"
	cfg.Database.Database = filepath.Join(dir, "analyses.db")
	cfg.Storage.Enabled = true
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = filepath.Join(dir, "archive")
	cfg.Cache.Enabled = true
	cfg.Cache.Type = "memory"

	svc := newTestService(t, cfg)
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx))
	defer svc.Stop()

	assert.NoError(t, svc.HealthCheck(ctx))
	stats := svc.Stats()
	assert.True(t, stats.Database)
	assert.True(t, stats.Storage)
	assert.True(t, stats.Cache)

	rec, err := svc.AnalyzeDump(ctx, "jstack.txt", testutil.LoadFixture(t, "jstack_deadlock.txt"))
	require.NoError(t, err)

	stored, err := svc.GetAnalysis(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Summary.TotalThreads)
	require.Len(t, stored.Summary.DeadlockCycles, 1)
	assert.Len(t, stored.Suggestions, 2)

	list, err := svc.ListAnalyses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	for _, p := range []string{
		filepath.Join(dir, "archive", "dumps", rec.ID, "jstack.txt"),
		filepath.Join(dir, "archive", "analyses", rec.ID, "summary.json"),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestService_Initialize_InMemoryDatabase(t *testing.T) {
	svc := newTestService(t, config.Default())
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx))
	defer svc.Stop()

	rec, err := svc.AnalyzeDump(ctx, "dump.txt", testutil.LoadFixture(t, "jstack_stuck.txt"))
	require.NoError(t, err)

	stored, err := svc.GetAnalysis(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Summary.TotalThreads)
	assert.False(t, svc.Stats().Cache)
}
