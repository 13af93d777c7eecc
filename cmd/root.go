package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hr-gpt/internal/ai"
	"github.com/spigell/hr-gpt/internal/ai/gemini"
	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/export"
	"github.com/spigell/hr-gpt/internal/logger"
	"github.com/spigell/hr-gpt/internal/secrets"
	"github.com/spigell/hr-gpt/internal/server"
	"github.com/spigell/hr-gpt/internal/workflow"
)

const (
	app     = "hr-gpt"
	envFile = ".env"
)

type Config struct {
	AI     *AIConfig     `mapstructure:"ai"`
	Limits *LimitsConfig `mapstructure:"limits"`
	Server server.Config `mapstructure:"server"`
	Export *ExportConfig `mapstructure:"export"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type LimitsConfig struct {
	MaxResumes  int   `mapstructure:"max-resumes"`
	MaxFileSize int64 `mapstructure:"max-file-size"`
}

type ExportConfig struct {
	Format string `mapstructure:"format"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hr-gpt screens resumes against a job description with Gemini and produces interview-ready reports",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.gemini.model":        "GEMINI_MODEL",
		"server.address":         "HR_GPT_ADDRESS",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("ai.gemini.model", gemini.DefaultModel)
	viper.SetDefault("limits.max-resumes", workflow.DefaultMaxResumes)
	viper.SetDefault("limits.max-file-size", document.DefaultMaxSize)
	viper.SetDefault("server.address", server.DefaultAddress)
	viper.SetDefault("server.body-limit", server.DefaultBodyLimit)
	viper.SetDefault("export.format", string(export.FormatCSV))

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hr-gpt.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("loading %s: %v", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly; everything has a default or an env var.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Limits == nil {
		config.Limits = &LimitsConfig{}
	}
	if config.Export == nil {
		config.Export = &ExportConfig{}
	}

	return config, nil
}

// setup builds the logger and reads the config. Logs go to stderr when stdout carries reports.
func setup(stderr bool) (*zap.Logger, *Config) {
	opts := logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")}
	if stderr {
		opts.Output = "stderr"
	}

	l, err := logger.New(opts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Debug("starting with config",
		zap.String("model", config.AI.Gemini.Model),
		zap.Int("max_resumes", config.Limits.MaxResumes),
		zap.Int64("max_file_size", config.Limits.MaxFileSize),
		zap.String("export_format", config.Export.Format),
	)

	return l, config
}

func newAnalyzer(ctx context.Context, config *Config, l *zap.Logger) (*ai.Analyzer, error) {
	cfg := config.AI.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name:    "gemini api key",
		File:    cfg.APIKeyFile,
		FileEnv: "GEMINI_API_KEY_FILE",
		Value:   cfg.APIKey,
		Env:     "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file)", err)
	}

	aiLogger := logger.WithAI(l, gemini.Provider, cfg.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, l)
	if err != nil {
		return nil, err
	}

	encoder := document.NewEncoder(config.Limits.MaxFileSize, l)
	return ai.NewAnalyzer(encoder, generator, aiLogger, cfg.MaxLogLength), nil
}

func newMachine(analyzer workflow.Analyzer, config *Config, l *zap.Logger) *workflow.Machine {
	return workflow.New(analyzer, l, workflow.WithMaxResumes(config.Limits.MaxResumes))
}

// mustAnalyzer is the startup path shared by all commands: a missing credential is fatal.
func mustAnalyzer(ctx context.Context, config *Config, l *zap.Logger) *ai.Analyzer {
	analyzer, err := newAnalyzer(ctx, config, l)
	if err != nil {
		l.Fatal("creating the gemini client", zap.Error(err))
	}
	l.Info("starting the hr-gpt", zap.String("version", version), zap.String("model", config.AI.Gemini.Model))
	return analyzer
}

func exportFormat(flag string, config *Config) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	return export.ParseFormat(config.Export.Format)
}
