package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"auto_x_quote_publisher/composer"
	"auto_x_quote_publisher/generator"
	"auto_x_quote_publisher/publisher"
	"auto_x_quote_publisher/store"
	"auto_x_quote_publisher/workflow"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotepost",
		Short:         "Generate, compose and publish daily quote posts to X",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(
		newComposeCmd(),
		newDraftCmd(),
		newPostCmd(),
		newServeCmd(),
	)
	return root
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// app is everything a command needs once config is loaded.
type app struct {
	cfg    publisher.Config
	logger *zap.Logger
	agent  *generator.Agent
	store  *store.Store
	flow   *workflow.Workflow
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logger.Sync()
}

func newApp() (*app, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	cfg, err := publisher.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	ngWords := cfg.NGWords
	if len(ngWords) == 0 {
		ngWords = generator.DefaultNGWords
	}
	agent, err := generator.NewAgent(llm, ngWords, logger.Named("generator"))
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Without credentials drafts are still generated; posting reports an error.
	var pub workflow.Publisher
	if cfg.X.Enabled {
		p, err := publisher.New(cfg.X, nil, logger.Named("publisher"))
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		pub = p
	}

	flow, err := workflow.New(agent, st, pub, workflow.Options{
		Theme:         generator.Theme{Theme: cfg.Theme, Subtheme: cfg.Subtheme},
		FixedHashtags: cfg.FixedHashtags,
		HashtagLimit:  cfg.HashtagLimit,
		DuplicateDays: cfg.DuplicateDays,
		Composer:      &composer.Composer{Budget: cfg.MaxTweetLength, Limits: *cfg.Limits},
	}, logger.Named("workflow"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	logger.Debug("Config loaded",
		zap.String("theme", cfg.Theme),
		zap.String("subtheme", cfg.Subtheme),
		zap.Int("max_tweet_length", cfg.MaxTweetLength),
		zap.Bool("x_enabled", cfg.X.Enabled))
	return &app{cfg: cfg, logger: logger, agent: agent, store: st, flow: flow}, nil
}

func buildLLM(cfg publisher.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; set llm.provider/model/api_key in config or OPENAI_API_KEY")
	}
	settings := &generator.LLMSettings{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
	}
	switch cfg.LLM.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// OpenAI-compatible endpoint; there is no default host.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
