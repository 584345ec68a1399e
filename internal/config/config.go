package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// Config holds the GANI API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Intent     IntentConfig     `yaml:"intent"`
	Verify     VerifyConfig     `yaml:"verify"`
	Session    SessionConfig    `yaml:"session"`
	Index      IndexConfig      `yaml:"index"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW index settings used at corpus load time.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit      int64   `yaml:"daily_token_limit"`       // 0 = unlimited
	MonthlyTokenLimit    int64   `yaml:"monthly_token_limit"`     // 0 = unlimited
	CostPerMillionTokens float64 `yaml:"cost_per_million_tokens"` // dashboard only
	Action               string  `yaml:"action"`                  // "reject" | "warn" (default)
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	BaseURL          string       `yaml:"base_url"`
	APIKey           string       `yaml:"api_key"`
	Model            string       `yaml:"model"`
	Dimensions       int          `yaml:"dimensions"`
	QueryInstruction string       `yaml:"query_instruction"`
	Budget           BudgetConfig `yaml:"budget"`
}

// GenerationConfig holds completion provider settings.
type GenerationConfig struct {
	BaseURL          string       `yaml:"base_url"`
	APIKey           string       `yaml:"api_key"`
	Model            string       `yaml:"model"`
	Temperature      float32      `yaml:"temperature"`
	TopP             float32      `yaml:"top_p"`
	MaxTokens        int          `yaml:"max_tokens"`
	TimeoutSec       int          `yaml:"timeout_sec"`
	SystemPrompt     string       `yaml:"system_prompt"`
	SystemPromptFile string       `yaml:"system_prompt_file"`
	Budget           BudgetConfig `yaml:"budget"`
}

// WeightEntry is one namespace weight row; list order sets the tie-break
// priority within an intent.
type WeightEntry struct {
	Namespace string  `yaml:"namespace"`
	Weight    float64 `yaml:"weight"`
}

// RetrievalConfig holds retrieval and packing settings.
type RetrievalConfig struct {
	TopKPerNamespace int                      `yaml:"top_k_per_namespace"`
	KContext         int                      `yaml:"k_context"`
	CharBudget       int                      `yaml:"char_budget"`
	SnippetCharLimit int                      `yaml:"snippet_char_limit"`
	Weights          map[string][]WeightEntry `yaml:"weights"` // intent -> ordered namespace weights
}

// IntentConfig holds intent classification settings.
type IntentConfig struct {
	Priority []string `yaml:"priority"` // tie-break order, strongest first
}

// VerifyConfig holds confidence policy settings.
type VerifyConfig struct {
	OverlapThreshold   float64 `yaml:"overlap_threshold"`
	UnsupportedPenalty float64 `yaml:"unsupported_penalty"`
	UngroundedWeight   float64 `yaml:"ungrounded_weight"`
	ModelHint          float64 `yaml:"model_hint"`
	ModelHintWeight    float64 `yaml:"model_hint_weight"`
}

// SessionConfig holds session memory settings.
type SessionConfig struct {
	Backend string `yaml:"backend"` // redis, memory (default: redis)
	TTLSec  int    `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Write timeout must cover a full generation call.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	embDefaults := domain.DefaultEmbeddingConfig()
	if c.Embedding.Model == "" {
		c.Embedding.Model = embDefaults.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = embDefaults.Dimensions
	}
	if c.Embedding.QueryInstruction == "" {
		c.Embedding.QueryInstruction = embDefaults.QueryInstruction
	}

	genDefaults := domain.DefaultGenerationConfig()
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = genDefaults.Model
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = genDefaults.Temperature
	}
	if c.Generation.TopP <= 0 {
		c.Generation.TopP = genDefaults.TopP
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = genDefaults.MaxTokens
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = int(genDefaults.Timeout.Seconds())
	}

	retDefaults := domain.DefaultRetrievalConfig()
	if c.Retrieval.TopKPerNamespace <= 0 {
		c.Retrieval.TopKPerNamespace = retDefaults.TopKPerNamespace
	}
	if c.Retrieval.KContext <= 0 {
		c.Retrieval.KContext = retDefaults.KContext
	}
	if c.Retrieval.CharBudget <= 0 {
		c.Retrieval.CharBudget = retDefaults.CharBudget
	}
	if c.Retrieval.SnippetCharLimit <= 0 {
		c.Retrieval.SnippetCharLimit = retDefaults.SnippetCharLimit
	}

	verDefaults := domain.DefaultVerifyConfig()
	if c.Verify.OverlapThreshold <= 0 {
		c.Verify.OverlapThreshold = verDefaults.OverlapThreshold
	}
	if c.Verify.UnsupportedPenalty <= 0 {
		c.Verify.UnsupportedPenalty = verDefaults.UnsupportedPenalty
	}
	if c.Verify.UngroundedWeight <= 0 {
		c.Verify.UngroundedWeight = verDefaults.UngroundedWeight
	}
	if c.Verify.ModelHint <= 0 {
		c.Verify.ModelHint = verDefaults.ModelHint
	}
	if c.Verify.ModelHintWeight <= 0 {
		c.Verify.ModelHintWeight = verDefaults.ModelHintWeight
	}

	if c.Session.Backend == "" {
		c.Session.Backend = "redis"
	}
	if c.Session.TTLSec <= 0 {
		c.Session.TTLSec = 3600
	}

	if c.Intent.Priority == nil {
		c.Intent.Priority = []string{"technical", "hr", "manager", "intro"}
	}

	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "gani:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if err := validateBudgetAction("embedding", c.Embedding.Budget); err != nil {
		return err
	}
	if err := validateBudgetAction("generation", c.Generation.Budget); err != nil {
		return err
	}
	switch c.Session.Backend {
	case "", "redis", "memory":
		// ok
	default:
		return fmt.Errorf("session.backend must be \"redis\" or \"memory\", got %q", c.Session.Backend)
	}
	if _, err := c.NamespaceWeights(); err != nil {
		return err
	}
	if _, err := c.IntentPriority(); err != nil {
		return err
	}
	return nil
}

func validateBudgetAction(section string, b BudgetConfig) error {
	switch b.Action {
	case "", "warn", "reject":
		return nil
	default:
		return fmt.Errorf(
			"%s.budget.action must be \"warn\" or \"reject\", got %q",
			section, b.Action,
		)
	}
}

// NamespaceWeights converts the configured weight table into the validated
// domain structure. An absent table yields the built-in defaults.
func (c *Config) NamespaceWeights() (domain.NamespaceWeights, error) {
	if len(c.Retrieval.Weights) == 0 {
		return domain.DefaultNamespaceWeights(), nil
	}

	weights := make(domain.NamespaceWeights, len(c.Retrieval.Weights))
	for label, entries := range c.Retrieval.Weights {
		intent, err := domain.ParseIntent(label)
		if err != nil {
			return nil, fmt.Errorf("retrieval.weights: %w", err)
		}
		list := make([]domain.NamespaceWeight, len(entries))
		for i, e := range entries {
			list[i] = domain.NamespaceWeight{Name: e.Namespace, Weight: e.Weight}
		}
		weights[intent] = list
	}

	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval.weights: %w", err)
	}
	return weights, nil
}

// IntentPriority converts the configured tie-break order into intent labels.
func (c *Config) IntentPriority() ([]domain.Intent, error) {
	priority := make([]domain.Intent, 0, len(c.Intent.Priority))
	seen := make(map[domain.Intent]struct{}, len(c.Intent.Priority))
	for _, label := range c.Intent.Priority {
		intent, err := domain.ParseIntent(label)
		if err != nil {
			return nil, fmt.Errorf("intent.priority: %w", err)
		}
		if _, dup := seen[intent]; dup {
			return nil, fmt.Errorf("intent.priority lists %q twice", intent)
		}
		seen[intent] = struct{}{}
		priority = append(priority, intent)
	}
	return priority, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
