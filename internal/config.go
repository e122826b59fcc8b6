package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host               string        `env:"HOST,default=0.0.0.0"`
	Port               int           `env:"PORT,default=5002" validate:"gte=0,lte=65535"`
	NotificationPort   int           `env:"NOTIFICATION_PORT,default=5003" validate:"gt=0,lte=65535"`
	BroadcastAddress   string        `env:"BROADCAST_ADDRESS,default=255.255.255.255" validate:"required,ip4_addr"`
	AdminPort          int           `env:"ADMIN_PORT,default=5004" validate:"gte=0,lte=65535"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	BadgerFilepath     string        `env:"BADGER_FILEPATH,default=./data/badger"`
	FilesDirectory     string        `env:"FILES_DIRECTORY,default=./data/files" validate:"required"`
	QuizzesFile        string        `env:"QUIZZES_FILE"`
	NotifyQueueSize    int           `env:"NOTIFY_QUEUE_SIZE,default=1024" validate:"gt=0"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT,default=0s" validate:"gte=0"`
	WriteTimeout       time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gte=0"`
	TagTimeout         time.Duration `env:"TAG_TIMEOUT,default=30s" validate:"gte=0"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL,default=30s" validate:"gt=0"`
	CapacityInterval   time.Duration `env:"CAPACITY_INTERVAL,default=5s" validate:"gt=0"`
	LowCapacity        int           `env:"LOW_CAPACITY_THRESHOLD,default=10" validate:"gte=0"`
	CharReplacement    string        `env:"CHARACTER_REPLACEMENT,default=*"`
	ModerationEnabled  bool          `env:"MODERATION_ENABLED,default=true"`
	AccountsEnabled    bool          `env:"ACCOUNTS_ENABLED,default=false"`
	MaxUploadSize      int64         `env:"MAX_UPLOAD_SIZE,default=104857600" validate:"gt=0"`
}

// Validate checks the bounds env tags cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.AdminPort)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
