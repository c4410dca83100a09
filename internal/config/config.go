package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`
	FrontendURL        string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`

	AccessTokenSecret  string `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	RefreshTokenSecret string `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	AccessTokenTTLMin  int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTokenTTLHrs int    `envconfig:"REFRESH_TOKEN_TTL_HOURS" default:"168"`

	S3URL       string `envconfig:"AWS_S3_URL"`
	S3Bucket    string `envconfig:"AWS_S3_BUCKET_NAME" required:"true"`
	S3Region    string `envconfig:"AWS_REGION" required:"true"`
	S3AccessKey string `envconfig:"AWS_ACCESS_KEY_ID" required:"true"`
	S3SecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY" required:"true"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
