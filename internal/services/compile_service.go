package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/entities"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/repositories"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/internal/services/parser"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/cache"
	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"
)

// ErrNoTargets is returned by BuildAll when there is nothing to build
var ErrNoTargets = errors.New("no targets to build")

// Target is one schema source and the module generated from it
type Target struct {
	SchemaPath  string
	OutputPath  string
	PackageName string
}

// CompileOptions configures the generated modules
type CompileOptions struct {
	RuntimeImport string
	LimitPolicy   relstore.LimitPolicy
	SourceRoot    string // Schema paths under it are recorded relative to it
}

// Result is the outcome of compiling one target
type Result struct {
	Target      Target
	Schema      *entities.Schema
	Diagnostics parser.Diagnostics // Sorted by position
	Module      []byte
	Changed     bool // Whether the output file was rewritten
}

// CompileServiceInterface defines the interface for schema compilation
type CompileServiceInterface interface {
	Compile(source string, target Target) (*Result, error)
	Check(ctx context.Context, target Target) (*Result, error)
	Build(ctx context.Context, target Target) (*Result, error)
	BuildAll(ctx context.Context, targets []Target) ([]*Result, error)
	ResetCache()
}

// CompileService compiles schema sources into relation-store modules
type CompileService struct {
	schemaRepo repositories.SchemaRepository
	moduleRepo repositories.ModuleRepository
	opts       CompileOptions
	logger     *slog.Logger
	cache      cache.Cache[*Result]
}

// CompileServiceOption configures a CompileService
type CompileServiceOption func(*CompileService)

// WithCache reuses compiled results for identical schema sources
func WithCache(c cache.Cache[*Result]) CompileServiceOption {
	return func(s *CompileService) {
		s.cache = c
	}
}

// NewCompileService creates a new CompileService
func NewCompileService(
	schemaRepo repositories.SchemaRepository,
	moduleRepo repositories.ModuleRepository,
	opts CompileOptions,
	logger *slog.Logger,
	options ...CompileServiceOption,
) *CompileService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &CompileService{
		schemaRepo: schemaRepo,
		moduleRepo: moduleRepo,
		opts:       opts,
		logger:     logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Compile runs the whole pipeline on source without touching storage.
// Malformed schema input never fails: it shows up in Result.Diagnostics.
func (s *CompileService) Compile(source string, target Target) (*Result, error) {
	name := s.sourceName(target.SchemaPath)
	if s.cache == nil {
		return s.compile(source, name, target)
	}

	key := cache.Key(source, name, target.PackageName, s.opts.RuntimeImport, s.opts.LimitPolicy.String())
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("compile cache hit", slog.String("schema", target.SchemaPath))
		result := *cached
		result.Target = target
		return &result, nil
	}

	result, err := s.compile(source, name, target)
	if err != nil {
		return nil, err
	}
	stored := *result
	s.cache.Set(key, &stored)
	return result, nil
}

func (s *CompileService) compile(source, name string, target Target) (*Result, error) {
	ast, parseDiags := parser.ParseSource(source)

	schema, resolveDiags := parser.ASTToSchema(name, ast)
	validateDiags := parser.NewValidator(schema).Validate()

	diags := make(parser.Diagnostics, 0, len(parseDiags)+len(resolveDiags)+len(validateDiags))
	diags = append(diags, parseDiags...)
	diags = append(diags, resolveDiags...)
	diags = append(diags, validateDiags...)

	generator := parser.NewGenerator(parser.GeneratorOptions{
		PackageName:   target.PackageName,
		RuntimeImport: s.opts.RuntimeImport,
		LimitPolicy:   s.opts.LimitPolicy,
	})
	module, err := generator.Generate(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", target.OutputPath, err)
	}

	return &Result{
		Target:      target,
		Schema:      schema,
		Diagnostics: diags.Sorted(),
		Module:      module,
	}, nil
}

// Check reads and compiles the schema of target without writing the module
func (s *CompileService) Check(ctx context.Context, target Target) (*Result, error) {
	source, err := s.schemaRepo.Read(ctx, target.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	result, err := s.Compile(source, target)
	if err != nil {
		return nil, err
	}
	s.logDiagnostics(result)
	return result, nil
}

// Build compiles the schema of target and writes the module when its content changed
func (s *CompileService) Build(ctx context.Context, target Target) (*Result, error) {
	result, err := s.Check(ctx, target)
	if err != nil {
		return nil, err
	}

	changed, err := s.moduleRepo.Write(ctx, target.OutputPath, result.Module)
	if err != nil {
		return nil, fmt.Errorf("failed to write module: %w", err)
	}
	result.Changed = changed

	s.logger.Info("built relation store",
		slog.String("schema", target.SchemaPath),
		slog.String("output", target.OutputPath),
		slog.Int("concepts", len(result.Schema.Concepts)),
		slog.Group("diagnostics",
			slog.Int("lexical", len(result.Diagnostics.OfKind(parser.DiagLexical))),
			slog.Int("structural", len(result.Diagnostics.OfKind(parser.DiagStructural))),
			slog.Int("semantic", len(result.Diagnostics.OfKind(parser.DiagSemantic))),
		),
		slog.Bool("changed", changed),
	)
	s.logCacheMetrics()
	return result, nil
}

// BuildAll builds every target concurrently. Results are returned in target order.
// The first failing target cancels the others.
func (s *CompileService) BuildAll(ctx context.Context, targets []Target) ([]*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	results := make([]*Result, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			result, err := s.Build(ctx, target)
			if err != nil {
				return fmt.Errorf("target %s: %w", target.SchemaPath, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ResetCache drops every cached compile result
func (s *CompileService) ResetCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// sourceName returns the schema path recorded in the generated header
func (s *CompileService) sourceName(path string) string {
	if s.opts.SourceRoot == "" {
		return path
	}
	rel, err := filepath.Rel(s.opts.SourceRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func (s *CompileService) logDiagnostics(result *Result) {
	for _, d := range result.Diagnostics {
		s.logger.Warn(d.Message,
			slog.String("schema", result.Target.SchemaPath),
			slog.Int("line", d.Line),
			slog.Int("column", d.Column),
			slog.String("kind", string(d.Kind)),
		)
	}
}

func (s *CompileService) logCacheMetrics() {
	if s.cache == nil {
		return
	}
	m := s.cache.Metrics()
	s.logger.Debug("compile cache",
		slog.Uint64("hits", m.Hits),
		slog.Uint64("misses", m.Misses),
		slog.Float64("hit_rate", m.HitRate()),
		slog.Uint64("evicted", m.KeysEvicted),
	)
}
