package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"codeatlas/internal/config"
	"codeatlas/internal/embedder"
	"codeatlas/internal/explain"
	"codeatlas/internal/retrieval"
	"codeatlas/internal/vectorstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:           "codeatlas",
	Short:         "Call-graph extraction and semantic search for JavaScript codebases",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default codeatlas.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// app bundles the loaded configuration and logger shared by all commands.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	debug := flagDebug || cfg.Debug
	logCfg := zap.NewProductionConfig()
	if debug {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) newEmbedder() (embedder.Embedder, error) {
	var e embedder.Embedder
	switch a.cfg.Embedding.Provider {
	case "openai", "":
		e = embedder.NewOpenAIEmbedder(a.cfg.Embedding.BaseURL, a.cfg.Embedding.APIKey, a.cfg.Embedding.Model)
	case "ollama":
		e = embedder.NewOllamaEmbedder(a.cfg.Embedding.BaseURL, a.cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", a.cfg.Embedding.Provider)
	}
	return embedder.WithCache(e, a.cfg.Embedding.CacheSize), nil
}

func (a *app) openStore() (vectorstore.Store, error) {
	cfg := vectorstore.Config{
		Backend:  a.cfg.VectorStore.Backend,
		IndexURL: a.cfg.VectorStore.IndexURL,
		APIKey:   a.cfg.VectorStore.APIKey,
		Path:     a.cfg.VectorStore.Path,
	}
	if cfg.Backend == vectorstore.BackendSQLite || cfg.Backend == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}
	return vectorstore.New(cfg, a.log)
}

func (a *app) newRetriever() (*retrieval.Engine, vectorstore.Store, error) {
	emb, err := a.newEmbedder()
	if err != nil {
		return nil, nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	return retrieval.New(emb, store, a.log), store, nil
}

func (a *app) newChat() (explain.Chat, error) {
	switch a.cfg.LLM.Provider {
	case "openai", "":
		return explain.NewOpenAIChat(a.cfg.LLM.BaseURL, a.cfg.LLM.APIKey, a.cfg.LLM.Model), nil
	case "ollama":
		return explain.NewOllamaChat(a.cfg.LLM.BaseURL, a.cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", a.cfg.LLM.Provider)
	}
}

func (a *app) newComposer() (*explain.Composer, vectorstore.Store, error) {
	engine, store, err := a.newRetriever()
	if err != nil {
		return nil, nil, err
	}
	chat, err := a.newChat()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return explain.NewComposer(engine, chat, a.cfg.LLM.Temperature, a.cfg.LLM.MaxTokens, a.log), store, nil
}
