package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// floorCore drops entries below level on top of whatever the wrapped core filters.
type floorCore struct {
	zapcore.Core

	// level is the lowest level this core lets through.
	level zapcore.Level
}

// Enabled reports whether both the floor and the wrapped core accept l.
// The shared atomic level keeps working underneath.
func (c *floorCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l) && c.Core.Enabled(l)
}

// Check adds the core to ce when the entry passes the floor.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *floorCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the floor on the derived core.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *floorCore) With(fields []zapcore.Field) zapcore.Core {
	return &floorCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel raises the minimum level of a derived logger to lvl.
// It never lowers it: entries below the global level stay dropped.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(
		func(core zapcore.Core) zapcore.Core {
			return &floorCore{Core: core, level: lvl}
		})
}
