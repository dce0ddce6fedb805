package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl is the Logger handed out by the constructors. Subloggers and With copies share the
// appender slice of their parent but own their level.
type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
	// context is attached to every entry, ahead of the call's own fields.
	context []zapcore.Field
}

// implFile is the source file of the logging methods, skipped when looking up the caller.
var implFile = func() string {
	_, file, _, _ := runtime.Caller(0)
	return file
}()

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) derive(name string, extra []zapcore.Field) *impl {
	context := make([]zapcore.Field, 0, len(imp.context)+len(extra))
	context = append(context, imp.context...)
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
		context:   append(context, extra...),
	}
}

func (imp *impl) Sublogger(subname string) Logger {
	if imp.name == "" {
		return imp.derive(subname, nil)
	}
	return imp.derive(imp.name+"."+subname, nil)
}

func (imp *impl) With(keysAndValues ...interface{}) Logger {
	return imp.derive(imp.name, pairFields(keysAndValues))
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders {
		errs = multierr.Append(errs, errors.Wrapf(appender.Sync(), "syncing %T", appender))
	}
	return errs
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	config := NewZapLoggerConfig()
	config.Level = zap.NewAtomicLevelAt(imp.level.Get().AsZap())
	ret := zap.Must(config.Build()).Sugar().Named(imp.name)
	// Appenders that are zap cores, like the test observer, keep receiving entries.
	for _, appender := range imp.appenders {
		core, ok := appender.(zapcore.Core)
		if !ok {
			continue
		}
		ret = ret.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}
	if len(imp.context) > 0 {
		ret = ret.Desugar().With(imp.context...).Sugar()
	}
	return ret
}

// emit sends one entry to every appender. The message is only rendered when level is enabled.
func (imp *impl) emit(level Level, render func() string, keysAndValues []interface{}) {
	if level < imp.level.Get() {
		return
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Caller:     callerOutsideLogging(),
		Message:    render(),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	fields := imp.context
	if len(keysAndValues) > 0 {
		fields = append(append([]zapcore.Field{}, imp.context...), pairFields(keysAndValues)...)
	}

	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrapf(err, "writing %q to %T", entry.Message, appender))
		}
	}
}

// pairFields turns alternating keys and values into zap fields. A trailing key without a value
// is kept with an "unpaired log key" error as its value.
func pairFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		switch k := keysAndValues[idx].(type) {
		case string:
			key = k
		case fmt.Stringer:
			key = k.String()
		default:
			key = fmt.Sprint(k)
		}
		if idx+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[idx+1]))
	}
	return fields
}

func sprint(args []interface{}) func() string {
	return func() string { return fmt.Sprint(args...) }
}

func sprintf(template string, args []interface{}) func() string {
	return func() string { return fmt.Sprintf(template, args...) }
}

func literal(msg string) func() string {
	return func() string { return msg }
}

func (imp *impl) Debug(args ...interface{}) { imp.emit(DEBUG, sprint(args), nil) }

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.emit(DEBUG, sprintf(template, args), nil)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emit(DEBUG, literal(msg), keysAndValues)
}

func (imp *impl) Info(args ...interface{}) { imp.emit(INFO, sprint(args), nil) }

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.emit(INFO, sprintf(template, args), nil)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emit(INFO, literal(msg), keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) { imp.emit(WARN, sprint(args), nil) }

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.emit(WARN, sprintf(template, args), nil)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emit(WARN, literal(msg), keysAndValues)
}

func (imp *impl) Error(args ...interface{}) { imp.emit(ERROR, sprint(args), nil) }

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.emit(ERROR, sprintf(template, args), nil)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emit(ERROR, literal(msg), keysAndValues)
}

// callerOutsideLogging returns the first frame on the stack that is not in this file, e.g.
// "transform/pinhole_camera_model.go:85".
func callerOutsideLogging() zapcore.EntryCaller {
	pcs := make([]uintptr, 8)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	for {
		frame, more := frames.Next()
		if frame.File != implFile {
			return zapcore.EntryCaller{
				Defined:  frame.PC != 0,
				PC:       frame.PC,
				File:     frame.File,
				Line:     frame.Line,
				Function: frame.Function,
			}
		}
		if !more {
			return zapcore.EntryCaller{}
		}
	}
}
