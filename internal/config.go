package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	Host              string        `env:"HOST,required=true"`
	Port              int           `env:"PORT,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=1m"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=4096"`

	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// CharacterRune validates that the configured replacement is one rune.
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

// SplitWords turns the comma-separated CENSORED_WORDS value into a clean list.
func SplitWords(csv string) []string {
	words := lo.Map(strings.Split(csv, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	})
	return lo.Filter(words, func(w string, _ int) bool { return w != "" })
}
