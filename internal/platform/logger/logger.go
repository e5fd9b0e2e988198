// Package logger wraps zap with key-aware scrubbing. Values under
// credential-bearing keys never reach the sink, and student identifiers
// are replaced with salted hashes so lines stay correlatable without
// naming who they belong to.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: z.Sugar()}, nil
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.SugaredLogger.Debugw(msg, scrub(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.SugaredLogger.Infow(msg, scrub(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.SugaredLogger.Warnw(msg, scrub(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.SugaredLogger.Errorw(msg, scrub(kv)...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.SugaredLogger.Fatalw(msg, scrub(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(kv)...)}
}

// redactor holds the scrub settings. LOG_REDACTION_ENABLED defaults on;
// only an explicit off switch disables it.
type redactor struct {
	enabled bool
	salt    string
}

var (
	loadOnce sync.Once
	active   redactor
)

func scrub(kv []interface{}) []interface{} {
	loadOnce.Do(func() { active = redactorFromEnv() })
	return active.kvs(kv)
}

func redactorFromEnv() redactor {
	enabled := true
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		enabled = false
	}
	return redactor{
		enabled: enabled,
		salt:    strings.TrimSpace(os.Getenv("LOG_HASH_SALT")),
	}
}

func (r redactor) kvs(kv []interface{}) []interface{} {
	if !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := strings.TrimSpace(strings.ToLower(stringify(kv[i])))
		out = append(out, stringify(kv[i]), r.value(key, kv[i+1]))
	}
	// A dangling key passes through; zap flags the pairing error itself.
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r redactor) value(key string, val interface{}) interface{} {
	switch {
	case key == "":
		return val
	case hasSecretKey(key):
		return "[REDACTED]"
	case hasIdentityKey(key):
		return r.hash(val)
	}
	if s, ok := val.(string); ok && looksLikeJWT(s) {
		return "[REDACTED]"
	}
	return val
}

var secretKeyFragments = []string{
	"token", "authorization", "password", "secret", "email", "refresh",
}

func hasSecretKey(key string) bool {
	for _, frag := range secretKeyFragments {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

func hasIdentityKey(key string) bool {
	return strings.Contains(key, "user_id") || strings.Contains(key, "session_id")
}

// hash keeps 12 hex chars, enough to join lines within one deployment
// without being reversible to a student id.
func (r redactor) hash(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
