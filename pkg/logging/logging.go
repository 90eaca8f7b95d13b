// Package logging 基于 zerolog 的结构化日志。
//
// 请求级 logger 通过 context 传递：
//
//	ctx = logging.WithContext(ctx, logger.With().Str("request_id", id).Logger())
//	logging.Ctx(ctx).Debug().Str("source", name).Msg("source failed")
//
// 日志链必须以 Msg / Send 结束，否则不会输出。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options 日志配置。
type Options struct {
	// Level: trace / debug / info / warn / error，默认 info
	Level string
	// Format: json / console，默认 json
	Format string
	// Output 默认 os.Stderr
	Output io.Writer
}

// New 根据配置创建 logger。无法识别的级别按 info 处理。
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}

// ParseLevel 解析日志级别，空串或无法识别时返回 info。
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop 返回不输出任何内容的 logger，测试和库默认值使用。
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithContext 把 logger 放入 context。
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// Ctx 取出 context 中的 logger；没有时返回 Nop logger，而不是全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		nop := zerolog.Nop()
		return &nop
	}
	return l
}

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID 生成请求 ID（UUID）。
func NewRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID 把请求 ID 放入 context。
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext 取出请求 ID，不存在时返回空串。
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
