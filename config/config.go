package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 애플리케이션 설정
type Config struct {
	Port    int    `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://127.0.0.1:27017"`
	MongoDB     string `envconfig:"MONGO_DB" default:"outreach_crm"`

	SessionDriver        string        `envconfig:"SESSION_DRIVER" default:"redis"`
	RedisAddr            string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword        string        `envconfig:"REDIS_PASSWORD"`
	RedisDB              int           `envconfig:"REDIS_DB" default:"0"`
	JWTKey               string        `envconfig:"JWT_KEY" required:"true"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionCheckInterval time.Duration `envconfig:"SESSION_CHECK_INTERVAL" default:"60s"`

	Timezone           string `envconfig:"TIMEZONE" default:"Asia/Seoul"`
	CORSOrigins        string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	AdminUsername    string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword    string `envconfig:"ADMIN_PASSWORD"`
	AdminDisplayName string `envconfig:"ADMIN_DISPLAY_NAME" default:"관리자"`

	SenderFallbackName  string `envconfig:"SENDER_FALLBACK_NAME" default:"담당 MD"`
	SenderFallbackEmail string `envconfig:"SENDER_FALLBACK_EMAIL" default:"md@outreach.local"`
	SenderFallbackPhone string `envconfig:"SENDER_FALLBACK_PHONE" default:"02-0000-0000"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`

	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"30"`
}

// LoadConfig .env 파일(있으면)과 환경변수에서 설정을 읽는다
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// .env 파일이 없어도 환경변수만으로 동작한다
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("env 파일 로드 실패(%s): %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("설정 파싱 실패: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("지원하지 않는 STORE_DRIVER: %s", c.StoreDriver)
	}
	switch c.SessionDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("지원하지 않는 SESSION_DRIVER: %s", c.SessionDriver)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL은 0보다 커야 합니다")
	}
	if c.SessionCheckInterval <= 0 {
		return errors.New("SESSION_CHECK_INTERVAL은 0보다 커야 합니다")
	}
	return nil
}

// Debug 디버그 모드 여부
func (c *Config) Debug() bool {
	return c.GinMode == "debug"
}

// Location 날짜 필터와 내보내기에 사용할 시간대
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// tzdata가 없는 컨테이너에서도 KST로 동작
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// AllowedOrigins CORS 허용 origin 목록
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// MailEnabled SMTP 발송 설정 여부
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
