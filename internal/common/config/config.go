package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	Name     string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type MQ struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	User  string `yaml:"user"`
	Pass  string `yaml:"password"`
	VHost string `yaml:"vhost"`
}

type Redis struct {
	Addr           string        `yaml:"addr"`
	Pass           string        `yaml:"password"`
	DB             int           `yaml:"db"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// Billing holds the pricing constants shared by every flow.
type Billing struct {
	TaxRate           float64 `yaml:"tax_rate"`
	ServiceChargeRate float64 `yaml:"service_charge_rate"`
	SharePolicy       string  `yaml:"share_policy"` // fractional | duplicate
	Currency          string  `yaml:"currency"`
}

type Kitchen struct {
	UrgentAfter         time.Duration `yaml:"urgent_after"`
	HighPriorityTotal   int64         `yaml:"high_priority_total"`
	MediumPriorityTotal int64         `yaml:"medium_priority_total"`
	Prefetch            int           `yaml:"prefetch"`
	RequeueDelay        time.Duration `yaml:"requeue_delay"`
}

type Tracking struct {
	Estimate time.Duration `yaml:"estimate"`
}

type HTTP struct {
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type App struct {
	Database DB       `yaml:"database"`
	Rabbit   MQ       `yaml:"rabbitmq"`
	Redis    Redis    `yaml:"redis"`
	Billing  Billing  `yaml:"billing"`
	Kitchen  Kitchen  `yaml:"kitchen"`
	Tracking Tracking `yaml:"tracking"`
	HTTP     HTTP     `yaml:"http"`
}

// Defaults returns a config with every optional field populated.
func Defaults() App {
	return App{
		Database: DB{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Rabbit:   MQ{Port: 5672, VHost: "/"},
		Redis:    Redis{IdempotencyTTL: 24 * time.Hour},
		Billing: Billing{
			TaxRate:           0.075,
			ServiceChargeRate: 0.10,
			SharePolicy:       "fractional",
			Currency:          "XOF",
		},
		Kitchen: Kitchen{
			UrgentAfter:         15 * time.Minute,
			HighPriorityTotal:   50000,
			MediumPriorityTotal: 20000,
			Prefetch:            1,
			RequeueDelay:        time.Second,
		},
		Tracking: Tracking{Estimate: 20 * time.Minute},
		HTTP:     HTTP{ReadTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second},
	}
}

func Load(path string) (App, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of Defaults and validates the result.
func Parse(b []byte) (App, error) {
	a := Defaults()
	if err := yaml.Unmarshal(b, &a); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	if err := a.Validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

func (a App) Validate() error {
	var errs []error
	if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
		errs = append(errs, errors.New("database config incomplete"))
	}
	if a.Rabbit.Host == "" || a.Rabbit.User == "" {
		errs = append(errs, errors.New("rabbitmq config incomplete"))
	}
	if a.Billing.TaxRate < 0 || a.Billing.TaxRate >= 1 {
		errs = append(errs, fmt.Errorf("billing.tax_rate %v out of range [0,1)", a.Billing.TaxRate))
	}
	if a.Billing.ServiceChargeRate < 0 || a.Billing.ServiceChargeRate >= 1 {
		errs = append(errs, fmt.Errorf("billing.service_charge_rate %v out of range [0,1)", a.Billing.ServiceChargeRate))
	}
	switch a.Billing.SharePolicy {
	case "fractional", "duplicate":
	default:
		errs = append(errs, fmt.Errorf("billing.share_policy %q must be fractional or duplicate", a.Billing.SharePolicy))
	}
	if a.Kitchen.UrgentAfter <= 0 || a.Tracking.Estimate <= 0 {
		errs = append(errs, errors.New("kitchen.urgent_after and tracking.estimate must be positive"))
	}
	return errors.Join(errs...)
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
