package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// SeedUser - пользователь, создаваемый при старте, если его ключа еще нет
type SeedUser struct {
	Username  string `yaml:"username"`
	AccessKey string `yaml:"access_key"`
}

type Config struct {
	Server struct {
		Port              string        `yaml:"port"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Storage struct {
		Type string `yaml:"type"`
	} `yaml:"storage"`
	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"postgres"`
	Access struct {
		DemoToken        string        `yaml:"demo_token"`
		StrictUserLookup bool          `yaml:"strict_user_lookup"`
		JWTSecret        string        `yaml:"jwt_secret"`
		JWTTTL           time.Duration `yaml:"jwt_ttl"`
	} `yaml:"access"`
	GraphQL struct {
		DefaultPageSize int `yaml:"default_page_size"`
		MaxDepth        int `yaml:"max_depth"`
	} `yaml:"graphql"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Seed struct {
		Users []SeedUser `yaml:"users"`
	} `yaml:"seed"`
}

// Load читает конфигурацию из YAML-файла. Пустой путь означает конфигурацию
// по умолчанию. Переменные окружения перекрывают значения из файла.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "чтение конфигурации %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "разбор конфигурации %s", path)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("SOCIALGRAPH_POSTGRES_DSN"); ok {
		c.Postgres.DSN = v
	}
	if v, ok := os.LookupEnv("SOCIALGRAPH_DEMO_TOKEN"); ok {
		c.Access.DemoToken = v
	}
	if v, ok := os.LookupEnv("SOCIALGRAPH_JWT_SECRET"); ok {
		c.Access.JWTSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageMemory
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 10
	}
	if c.Access.JWTTTL == 0 {
		c.Access.JWTTTL = 24 * time.Hour
	}
	if c.GraphQL.DefaultPageSize == 0 {
		c.GraphQL.DefaultPageSize = 20
	}
	if c.GraphQL.MaxDepth == 0 {
		c.GraphQL.MaxDepth = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn обязателен для storage.type=postgres")
		}
	default:
		return errors.Errorf("неизвестный тип хранилища: %s", c.Storage.Type)
	}
	if c.GraphQL.DefaultPageSize < 0 || c.GraphQL.DefaultPageSize > 100 {
		return errors.New("graphql.default_page_size должен быть от 1 до 100")
	}
	if c.Postgres.MaxConns < 0 {
		return errors.New("postgres.max_conns не может быть отрицательным")
	}
	seen := make(map[string]struct{}, len(c.Seed.Users))
	for _, u := range c.Seed.Users {
		if u.Username == "" || u.AccessKey == "" {
			return errors.New("seed.users: username и access_key обязательны")
		}
		if _, ok := seen[u.AccessKey]; ok {
			return errors.Errorf("seed.users: ключ пользователя %s повторяется", u.Username)
		}
		seen[u.AccessKey] = struct{}{}
	}
	return nil
}
