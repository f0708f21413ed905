package config

import (
	"log"
	"os"
	"strconv"

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

// ProposalServiceConfig 提案服务（外部协作方）配置
type ProposalServiceConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ProgressConfig 进度引擎配置
type ProgressConfig struct {
	// 紧急阈值（小时）：未完成且在该时间窗口内到期的里程碑标记为 urgent
	UrgentThresholdHours int `yaml:"urgent_threshold_hours"`
}

// OutboxConfig Outbox Dispatcher 配置
type OutboxConfig struct {
	IntervalMS int `yaml:"interval_ms"`
	BatchSize  int `yaml:"batch_size"`
	MaxRetries int `yaml:"max_retries"`
}

type Config struct {
	DB       DBConfig              `yaml:"db"`
	MQ       MQConfig              `yaml:"mq"`
	Redis    RedisConfig           `yaml:"redis"`
	JWT      JWTConfig             `yaml:"jwt"`
	Server   ServerConfig          `yaml:"server"`
	Proposal ProposalServiceConfig `yaml:"proposal_service"`
	Progress ProgressConfig        `yaml:"progress"`
	Outbox   OutboxConfig          `yaml:"outbox"`
}

func Load() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	applyDefaults(&cfg)

	// 环境变量覆盖（生产环境使用）
	overrideFromEnv(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Progress.UrgentThresholdHours <= 0 {
		cfg.Progress.UrgentThresholdHours = 48
	}
	if cfg.Outbox.IntervalMS <= 0 {
		cfg.Outbox.IntervalMS = 1000
	}
	if cfg.Outbox.BatchSize <= 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.MaxRetries <= 0 {
		cfg.Outbox.MaxRetries = 5
	}
}

func overrideFromEnv(cfg *Config) {
	// DB配置
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

	// MQ配置
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	// Redis配置
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	// JWT配置
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	// Server配置
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	// 提案服务配置
	if url := os.Getenv("PROPOSAL_SERVICE_URL"); url != "" {
		cfg.Proposal.BaseURL = url
	}
}
