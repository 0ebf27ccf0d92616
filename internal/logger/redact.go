package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// sensitiveFields 需要脱敏的日志字段
var sensitiveFields = map[string]struct{}{
	"license_key":      {},
	"key":              {},
	"installation_id":  {},
	"confirmation_id":  {},
	"email":            {},
	"phone":            {},
	"password":         {},
	"token":            {},
	"getcid_api_token": {},
}

// Mask 仅保留末尾 4 位，其余替换为 *
func Mask(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// IsSensitiveField 判断字段名是否需要脱敏
func IsSensitiveField(name string) bool {
	_, ok := sensitiveFields[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// redactCore 在编码前改写敏感字段
type redactCore struct {
	zapcore.Core
}

func (c *redactCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *redactCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, field := range fields {
		if !IsSensitiveField(field.Key) || field.Type != zapcore.StringType {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i].String = Mask(field.String)
	}
	if out == nil {
		return fields
	}
	return out
}
