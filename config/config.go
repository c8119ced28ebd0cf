package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DNSConfig struct {
	Nameservers    []string `yaml:"nameservers"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Retries        int      `yaml:"retries"`
}

type RelayConfig struct {
	BaseURL    string   `yaml:"base_url"`
	APIKey     string   `yaml:"api_key"`
	MXHosts    []string `yaml:"mx_hosts"`
	SPFInclude string   `yaml:"spf_include"`
}

type ForwardingConfig struct {
	// AllowPending lets forwarding run for domains whose DNS verification
	// has not completed yet. Product policy, not an implementation detail.
	AllowPending   bool   `yaml:"allow_pending"`
	FallbackDomain string `yaml:"fallback_domain"`
	WebhookSecret  string `yaml:"webhook_secret"`
}

type Config struct {
	DB         DBConfig         `yaml:"db"`
	MQ         MQConfig         `yaml:"mq"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Server     ServerConfig     `yaml:"server"`
	DNS        DNSConfig        `yaml:"dns"`
	Relay      RelayConfig      `yaml:"relay"`
	Forwarding ForwardingConfig `yaml:"forwarding"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	overrideFromEnv(&cfg)

	return &cfg
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if servers := os.Getenv("DNS_NAMESERVERS"); servers != "" {
		cfg.DNS.Nameservers = strings.Split(servers, ",")
	}

	if baseURL := os.Getenv("RELAY_BASE_URL"); baseURL != "" {
		cfg.Relay.BaseURL = baseURL
	}
	if apiKey := os.Getenv("RELAY_API_KEY"); apiKey != "" {
		cfg.Relay.APIKey = apiKey
	}

	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		cfg.Forwarding.WebhookSecret = secret
	}
}
