package config

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Parameter names looked up in AWS SSM Parameter Store for prod deployments.
const (
	ParamPolygonAPIKey = "PATTERNSCOPE_POLYGON_API_KEY"
	ParamLLMAPIKey     = "PATTERNSCOPE_LLM_API_KEY"
	ParamDBHost        = "PATTERNSCOPE_DB_HOST"
	ParamDBUser        = "PATTERNSCOPE_DB_USER"
	ParamDBPassword    = "PATTERNSCOPE_DB_PASSWORD"
)

// SecretSource resolves a named secret. An empty string means "not found".
type SecretSource interface {
	Get(ctx context.Context, name string) string
}

// ParameterStore reads SecureString parameters from AWS SSM.
type ParameterStore struct {
	Timeout time.Duration
}

func NewParameterStore() *ParameterStore {
	return &ParameterStore{Timeout: 5 * time.Second}
}

func (p *ParameterStore) Get(ctx context.Context, name string) string {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	decrypt := true
	input := &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}

// resolveSecrets fills credentials that were not provided by file or environment.
func (c *Config) resolveSecrets(src SecretSource) {
	ctx := context.Background()

	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v := src.Get(ctx, name); v != "" {
			*dst = v
		}
	}

	fill(&c.Polygon.APIKey, ParamPolygonAPIKey)
	fill(&c.LLM.APIKey, ParamLLMAPIKey)

	if c.Postgres.Enabled {
		if v := src.Get(ctx, ParamDBHost); v != "" {
			c.Postgres.Host = v
		}
		if v := src.Get(ctx, ParamDBUser); v != "" {
			c.Postgres.User = v
		}
		fill(&c.Postgres.Password, ParamDBPassword)
	}
}
