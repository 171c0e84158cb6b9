// Package config loads engine settings from a YAML file, a .env file and
// REPAIRKPI_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/services"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

const (
	EnvConfigPath = "REPAIRKPI_CONFIG"
	EnvLogLevel   = "REPAIRKPI_LOG_LEVEL"
	EnvDBPath     = "REPAIRKPI_DB"
	EnvEncoding   = "REPAIRKPI_ENCODING"
)

const (
	defaultLaborRatePerPoint = 1179
	defaultTargetPoints      = 150
	defaultCoopScore         = 90
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
	defaultEncoding          = "auto"
)

const serviceKeys = "gen hard ext home hosp_maint chk ins hosp_ins ctr ref def"

// Config holds the resolved engine settings
type Config struct {
	Weights           map[string]float64 `validate:"dive,keys,oneof=gen hard ext home hosp_maint chk ins hosp_ins ctr ref def,endkeys,gte=0"`
	SLATargets        map[string]int     `validate:"dive,keys,oneof=gen hard ext home hosp_maint chk ins hosp_ins ctr ref def,endkeys,gte=1"`
	LaborRatePerPoint float64            `validate:"gt=0"`
	TargetPoints      float64            `validate:"gt=0"`
	DefaultCoopScore  float64            `validate:"gte=0,lte=100"`
	CoopScores        map[string]float64 `validate:"dive,gte=0,lte=100"`
	RecallWindowDays  int                `validate:"gte=1,lte=365"`
	Encoding          string             `validate:"oneof=auto utf-8 utf8 big5"`
	PriceTable        string
	LogLevel          string `validate:"oneof=trace debug info warn warning error"`
	LogFormat         string `validate:"oneof=text json"`
	DBPath            string
}

type fileConfig struct {
	Weights           map[string]float64 `yaml:"weights"`
	SLATargets        map[string]int     `yaml:"sla_targets"`
	LaborRatePerPoint *float64           `yaml:"labor_rate_per_point"`
	TargetPoints      *float64           `yaml:"target_points"`
	DefaultCoopScore  *float64           `yaml:"default_coop_score"`
	CoopScores        map[string]float64 `yaml:"coop_scores"`
	RecallWindowDays  *int               `yaml:"recall_window_days"`
	Encoding          string             `yaml:"encoding"`
	PriceTable        string             `yaml:"price_table"`
	LogLevel          string             `yaml:"log_level"`
	LogFormat         string             `yaml:"log_format"`
	DBPath            string             `yaml:"db_path"`
}

// Default returns the department's standard settings
func Default() Config {
	weights := make(map[string]float64)
	for t, w := range entities.DefaultWeightTable() {
		weights[t.Key()] = w
	}
	return Config{
		Weights:           weights,
		SLATargets:        map[string]int{},
		LaborRatePerPoint: defaultLaborRatePerPoint,
		TargetPoints:      defaultTargetPoints,
		DefaultCoopScore:  defaultCoopScore,
		CoopScores:        map[string]float64{},
		RecallWindowDays:  services.DefaultRecallWindowDays,
		Encoding:          defaultEncoding,
		LogLevel:          defaultLogLevel,
		LogFormat:         defaultLogFormat,
	}
}

// Load resolves settings from defaults, the YAML file at path (or
// $REPAIRKPI_CONFIG when path is empty), .env and the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	path = firstNonEmpty(path, os.Getenv(EnvConfigPath))
	if path != "" {
		fileCfg, err := loadFileConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		cfg = applyFileConfig(cfg, fileCfg)
	}

	cfg.LogLevel = strings.ToLower(firstNonEmpty(os.Getenv(EnvLogLevel), cfg.LogLevel))
	cfg.DBPath = firstNonEmpty(os.Getenv(EnvDBPath), cfg.DBPath)
	cfg.Encoding = strings.ToLower(firstNonEmpty(os.Getenv(EnvEncoding), cfg.Encoding))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFileConfig(cfg Config, f fileConfig) Config {
	for k, v := range f.Weights {
		cfg.Weights[k] = v
	}
	for k, v := range f.SLATargets {
		cfg.SLATargets[k] = v
	}
	for k, v := range f.CoopScores {
		cfg.CoopScores[k] = v
	}
	if f.LaborRatePerPoint != nil {
		cfg.LaborRatePerPoint = *f.LaborRatePerPoint
	}
	if f.TargetPoints != nil {
		cfg.TargetPoints = *f.TargetPoints
	}
	if f.DefaultCoopScore != nil {
		cfg.DefaultCoopScore = *f.DefaultCoopScore
	}
	if f.RecallWindowDays != nil {
		cfg.RecallWindowDays = *f.RecallWindowDays
	}
	cfg.Encoding = firstNonEmpty(f.Encoding, cfg.Encoding)
	cfg.PriceTable = firstNonEmpty(f.PriceTable, cfg.PriceTable)
	cfg.LogLevel = firstNonEmpty(f.LogLevel, cfg.LogLevel)
	cfg.LogFormat = firstNonEmpty(f.LogFormat, cfg.LogFormat)
	cfg.DBPath = firstNonEmpty(f.DBPath, cfg.DBPath)
	return cfg
}

// Validate checks every field against its constraints
func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed %s", ve.Namespace(), ve.Tag()))
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// WeightTable returns the point weights with file overrides applied
func (c Config) WeightTable() (entities.WeightTable, error) {
	return entities.DefaultWeightTable().WithOverrides(c.Weights)
}

// Classifier returns a type classifier with the configured SLA targets
func (c Config) Classifier() (*services.TypeClassifier, error) {
	return services.NewTypeClassifier().WithSLAOverrides(c.SLATargets)
}

// CoopScore returns the cooperation score of an engineer
func (c Config) CoopScore(engineer string) float64 {
	if v, ok := c.CoopScores[engineer]; ok {
		return v
	}
	return c.DefaultCoopScore
}

// ServiceKeys lists the accepted weight and SLA keys
func ServiceKeys() []string {
	return strings.Fields(serviceKeys)
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
