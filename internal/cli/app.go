package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/bawdo/filtersql/compiler"
	"github.com/bawdo/filtersql/embedding"
	"github.com/bawdo/filtersql/internal/config"
	"github.com/bawdo/filtersql/schema"
	"github.com/bawdo/filtersql/store"
	"github.com/bawdo/filtersql/tool"
)

// app is the wired set of components a command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	schema   *schema.Holder
	store    *store.Store
	compiler *compiler.Compiler
	search   *tool.Search
	embedder embedding.Provider
}

type appOptions struct {
	connect bool
	dialect string
	pretty  bool
	comment string
}

func loadSchema(fs afero.Fs, path string) (*schema.Schema, error) {
	if path == "" {
		return schema.Default(), nil
	}
	return schema.Load(fs, path)
}

func newApp(ctx context.Context, cfg *config.Config, fs afero.Fs, o appOptions) (*app, error) {
	logger := slog.Default()
	sch, err := loadSchema(fs, cfg.Schema)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, schema: schema.NewHolder(sch)}

	if cfg.EmbeddingEnabled() {
		if a.embedder, err = embedding.NewClient(cfg.EmbeddingClient(), logger); err != nil {
			return nil, err
		}
	} else {
		logger.Debug("embedding provider not configured; semantic conditions will fail")
	}

	dialect := o.dialect
	if dialect == "" {
		if dialect, err = cfg.Dialect(); err != nil {
			return nil, err
		}
	}
	if a.compiler, err = a.newCompiler(dialect, cfg.Compiler.Pretty || o.pretty, o.comment); err != nil {
		return nil, err
	}

	if !o.connect {
		return a, nil
	}
	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// newCompiler builds a compiler over the app's schema for dialect.
func (a *app) newCompiler(dialect string, pretty bool, comment string) (*compiler.Compiler, error) {
	opts := []compiler.Option{
		compiler.WithDialect(dialect),
		compiler.WithLogger(a.logger),
	}
	if a.cfg.Compiler.MaxDepth > 0 {
		opts = append(opts, compiler.WithMaxDepth(a.cfg.Compiler.MaxDepth))
	}
	if a.cfg.Compiler.EmbedConcurrency > 0 {
		opts = append(opts, compiler.WithEmbedConcurrency(a.cfg.Compiler.EmbedConcurrency))
	}
	if pretty {
		opts = append(opts, compiler.WithPretty())
	}
	if comment != "" {
		opts = append(opts, compiler.WithComment(comment))
	}
	if a.embedder != nil {
		opts = append(opts, compiler.WithEmbedder(a.embedder), compiler.WithDimensions(a.cfg.Embedding.Dimensions))
	}
	return compiler.New(a.schema, opts...)
}

func (a *app) connect(ctx context.Context) error {
	engine, dsn, err := a.cfg.Engine()
	if err != nil {
		return err
	}
	a.logger.Info("connecting", "engine", engine, "dsn", store.SanitizeDSN(dsn))
	st, err := store.Open(ctx, engine, dsn, store.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("connect %s: %w", store.SanitizeDSN(dsn), err)
	}
	search, err := tool.New(a.compiler, st, a.schema, a.cfg.Tool.Table, a.logger)
	if err != nil {
		_ = st.Close()
		return err
	}
	a.store, a.search = st, search
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
