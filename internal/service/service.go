// Package service analyzes uploaded thread dumps and keeps their results
// in the configured cache, database and object storage.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/threaddump-analysis/internal/analyzer"
	"github.com/threaddump-analysis/internal/cache"
	"github.com/threaddump-analysis/internal/repository"
	"github.com/threaddump-analysis/internal/storage"
	"github.com/threaddump-analysis/pkg/config"
	apperrors "github.com/threaddump-analysis/pkg/errors"
	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/telemetry"
	"github.com/threaddump-analysis/pkg/utils"
)

// Option configures a Service.
type Option func(*Service)

// WithRepository injects the analysis repository.
func WithRepository(repo repository.AnalysisRepository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithStorage injects the archive storage.
func WithStorage(store storage.Storage) Option {
	return func(s *Service) { s.storage = store }
}

// WithCache injects the summary cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock sets the clock used for record timestamps.
func WithClock(clock utils.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator sets the generator of record ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service is the main application service.
type Service struct {
	config   *config.Config
	logger   utils.Logger
	clock    utils.Clock
	newID    func() string
	analyzer *analyzer.BaseAnalyzer

	db      *repository.Repositories
	repo    repository.AnalysisRepository
	storage storage.Storage
	cache   cache.Cache

	analyzed  atomic.Int64
	cacheHits atomic.Int64
}

// New creates a new Service instance. Components not injected through opts
// are created by Initialize.
func New(cfg *config.Config, logger utils.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	s := &Service{
		config: cfg,
		logger: logger,
		clock:  utils.NewRealClock(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.analyzer = analyzer.NewBaseAnalyzer(&analyzer.BaseAnalyzerConfig{
		MaxThreads: cfg.Analysis.MaxThreads,
		StrictMode: cfg.Analysis.StrictMode,
		Logger:     logger,
	})

	return s, nil
}

// Initialize creates the database, storage and cache clients from the
// configuration.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := s.initCache(); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

func (s *Service) initDatabase() error {
	if s.repo != nil {
		return nil
	}

	var (
		repos *repository.Repositories
		err   error
	)
	if s.config.Database.Enabled {
		s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)
		repos, err = repository.Open(&s.config.Database)
	} else {
		s.logger.Info("Database disabled, keeping analyses in memory")
		repos, err = repository.OpenInMemory()
	}
	if err != nil {
		return err
	}

	s.db = repos
	s.repo = repos.Analysis
	return nil
}

func (s *Service) initStorage() error {
	if s.storage != nil || !s.config.Storage.Enabled {
		return nil
	}

	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)
	store, err := storage.New(&s.config.Storage)
	if err != nil {
		return err
	}
	s.storage = store
	return nil
}

func (s *Service) initCache() error {
	if s.cache != nil {
		return nil
	}

	c, err := cache.New(&s.config.Cache, s.logger)
	if err != nil {
		return err
	}
	s.cache = c
	return nil
}

// AnalyzeDump validates, analyzes and records one uploaded dump. A dump
// whose content was analyzed before is served from the cache.
func (s *Service) AnalyzeDump(ctx context.Context, fileName string, content []byte) (rec *model.AnalysisRecord, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.AnalyzeDump",
		attribute.String("file.name", fileName),
		attribute.Int("file.size", len(content)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if !model.IsDumpFile(fileName) {
		return nil, apperrors.New(apperrors.CodeUnsupportedFile,
			fmt.Sprintf("unsupported file %q, expected one of %v", fileName, model.DumpExtensions))
	}
	if limit := s.config.Analysis.MaxDumpBytes; limit > 0 && int64(len(content)) > limit {
		return nil, apperrors.New(apperrors.CodeDumpTooLarge,
			fmt.Sprintf("dump is %d bytes, limit is %d", len(content), limit))
	}

	hash := cache.ContentHash(content)
	log := s.logger.WithFields(map[string]interface{}{"file": fileName, "hash": hash[:12]})

	if cached := s.lookupCache(ctx, hash, log); cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	outcome, err := s.analyzer.Run(ctx, bytes.NewReader(content))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to parse dump", err)
	}
	if outcome.Summary.TotalThreads == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyDump,
			fmt.Sprintf("no threads found in %d blocks", outcome.Parse.TotalBlocks))
	}

	rec = &model.AnalysisRecord{
		ID:          s.newID(),
		FileName:    fileName,
		ContentHash: hash,
		CreatedAt:   s.clock.Now().UTC(),
		Summary:     outcome.Summary,
		Suggestions: outcome.Suggestions,
	}
	for i := range rec.Suggestions {
		rec.Suggestions[i].AnalysisID = rec.ID
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save analysis", err)
		}
	}

	s.archive(ctx, rec, content, log)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.KeyPrefix+hash, rec); err != nil {
			log.Warn("Failed to cache analysis %s: %v", rec.ID, err)
		}
	}

	s.analyzed.Add(1)
	log.Info("Analyzed %d threads (%d blocked, %d deadlock cycles) as %s",
		rec.Summary.TotalThreads, rec.Summary.BlockedThreads, len(rec.Summary.DeadlockCycles), rec.ID)
	return rec, nil
}

func (s *Service) lookupCache(ctx context.Context, hash string, log utils.Logger) *model.AnalysisRecord {
	if s.cache == nil {
		return nil
	}

	var rec model.AnalysisRecord
	err := s.cache.Get(ctx, cache.KeyPrefix+hash, &rec)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("Cache lookup failed: %v", err)
		}
		return nil
	}

	s.cacheHits.Add(1)
	log.Debug("Cache hit for %s", rec.ID)
	rec.Cached = true
	return &rec
}

// archive uploads the raw dump and the summary. Failures are logged and
// do not fail the analysis.
func (s *Service) archive(ctx context.Context, rec *model.AnalysisRecord, content []byte, log utils.Logger) {
	if s.storage == nil {
		return
	}

	archiver := storage.NewArchiver(s.storage, log)
	if _, err := archiver.ArchiveDump(ctx, rec.ID, rec.FileName, content); err != nil {
		log.Warn("Failed to archive dump %s: %v", rec.ID, err)
	}
	if _, err := archiver.ArchiveSummary(ctx, rec.ID, rec.Summary); err != nil {
		log.Warn("Failed to archive summary %s: %v", rec.ID, err)
	}
}

// GetAnalysis returns the stored analysis with the given id.
func (s *Service) GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	if s.repo == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("analysis %s not found", id))
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("analysis %s not found", id), err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to load analysis", err)
	}
	return rec, nil
}

// ListAnalyses returns the most recent analyses, newest first.
func (s *Service) ListAnalyses(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	if s.repo == nil {
		return []*model.AnalysisRecord{}, nil
	}

	recs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list analyses", err)
	}
	return recs, nil
}

// Stop releases the database and cache connections.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Failed to close cache: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	s.logger.Info("Service stopped")
	return nil
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		Analyzed:  s.analyzed.Load(),
		CacheHits: s.cacheHits.Load(),
		Database:  s.repo != nil,
		Storage:   s.storage != nil,
		Cache:     s.cache != nil,
	}
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Analyzed  int64 `json:"analyzed"`
	CacheHits int64 `json:"cacheHits"`
	Database  bool  `json:"database"`
	Storage   bool  `json:"storage"`
	Cache     bool  `json:"cache"`
}
