package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging surface every package in this daemon depends on,
// rather than depending on logrus directly, so the backing implementation
// stays swappable.
type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once   sync.Once
	logger Logger
)

// GetLogger returns the process-wide Logger. Init must run first; every
// trigger, target, and pipeline component shares this single instance.
func GetLogger() Logger {
	return logger
}

// Init builds the process-wide Logger from cfg. Safe to call more than
// once; only the first call takes effect; for the daemon's single-shot
// startup path, that just means the CLI can call it unconditionally.
func Init(cfg *LoggerConfig) {
	once.Do(func() {
		if err := initByConfig(cfg); err != nil {
			panic(err)
		}
	})
}

// LoggerConfig is the YAML/env-decoded shape of the daemon's logging block.
type LoggerConfig struct {
	Pattern      string           `mapstructure:"pattern"`
	Time         string           `mapstructure:"time"`
	Level        string           `mapstructure:"level"`
	Appender     string           `mapstructure:"appender"`
	FileAppender *FileAppenderOpt `mapstructure:"file_appender"`
}

// FileAppenderOpt configures the optional rotating file appender, layered
// on top of stdout when WEBHOOK_LOG_FILE (or the equivalent config key) is
// set.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MultiWriter fans one log line out to every registered writer, collapsing
// write errors from individual writers into a single returned error so a
// broken file destination never stops stdout output.
type MultiWriter struct {
	writers []io.Writer
}

// NewMultiWriter returns an empty MultiWriter; writers are attached with
// Add/AddFileAppender.
func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

// AddFileAppender attaches a lumberjack-backed rotating file writer.
func (m *MultiWriter) AddFileAppender(options FileAppenderOpt) *MultiWriter {
	m.writers = append(m.writers, &lumberjack.Logger{
		Filename:   options.Filename,
		MaxSize:    options.MaxSize,    // megabytes
		MaxBackups: options.MaxBackups, // number of backups
		MaxAge:     options.MaxAge,     // days
		Compress:   options.Compress,
	})
	return m
}

// formatter renders a logrus.Entry using a printf-style pattern with
// %time, %level, %field, %msg, %caller, %func and %goroutine placeholders,
// so the daemon's log line shape is a config value rather than compiled in.
type formatter struct {
	pattern string
	time    string
}

func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	output := f.pattern
	output = strings.Replace(output, "%time", entry.Time.Format(f.time), 1)
	output = strings.Replace(output, "%level", entry.Level.String(), 1)
	output = strings.Replace(output, "%field", buildFields(entry), 1)
	output = strings.Replace(output, "%msg", entry.Message, 1)
	output = strings.Replace(output, "%caller", getCaller(entry), 1)
	output = strings.Replace(output, "%func", getFunc(entry), 1)
	output = strings.Replace(output, "%goroutine", getGoroutineID(), 1)
	return []byte(output), nil
}

// callerSkipFrames is the runtime.Caller depth from inside getCaller/getFunc
// up to the daemon code that called a Logger method: logrusAdapter's method
// -> logrus.Entry's method -> logrus' internal log() -> Format. This daemon
// never enables logrus.SetReportCaller, so entry.HasCaller() is always
// false and this fallback path is the one actually exercised.
const callerSkipFrames = 8

// getCaller reports "package/file:line" for the log call site.
func getCaller(entry *logrus.Entry) string {
	if entry.HasCaller() {
		return fmt.Sprintf("%s/%s:%d", callerPackage(entry.Caller.Function), baseName(entry.Caller.File), entry.Caller.Line)
	}
	if _, file, line, ok := runtime.Caller(callerSkipFrames); ok {
		return fmt.Sprintf("unknown/%s:%d", baseName(file), line)
	}
	return "unknown"
}

// getFunc reports the bare function or method name for the log call site.
func getFunc(entry *logrus.Entry) string {
	if entry.HasCaller() {
		return lastSegment(entry.Caller.Function)
	}
	if pc, _, _, ok := runtime.Caller(callerSkipFrames); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			return lastSegment(fn.Name())
		}
	}
	return "unknown"
}

// getGoroutineID extracts the numeric goroutine ID runtime.Stack prints as
// its first line ("goroutine 7 [running]: ..."). There is no supported API
// for this; it is a debugging aid for correlating interleaved pipeline
// output, not something to depend on for correctness.
func getGoroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	stack := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if fields := strings.Fields(stack); len(fields) > 0 {
		return fields[0]
	}
	return "unknown"
}

func buildFields(entry *logrus.Entry) string {
	fields := make([]string, 0, len(entry.Data))
	for key, val := range entry.Data {
		s, ok := val.(string)
		if !ok {
			s = fmt.Sprint(val)
		}
		fields = append(fields, key+"="+s)
	}
	return strings.Join(fields, ",")
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i != -1 && i+1 < len(path) {
		return path[i+1:]
	}
	return path
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i != -1 && i+1 < len(name) {
		return name[i+1:]
	}
	return name
}

// callerPackage extracts the package name out of a fully-qualified function
// name such as "firestige.xyz/webhookd/pkg/pipeline.(*Pipeline).dispatch".
func callerPackage(function string) string {
	if function == "" {
		return ""
	}
	parts := strings.Split(function, ".")
	if len(parts) < 2 {
		return ""
	}
	pkgParts := strings.Split(parts[0], "/")
	return pkgParts[len(pkgParts)-1]
}

type logrusAdapter struct {
	entry *logrus.Entry
}

func initByConfig(cfg *LoggerConfig) error {
	l := logrus.New()
	l.SetFormatter(&formatter{
		pattern: cfg.Pattern,
		time:    cfg.Time,
	})

	// logrus has no native "off" level; "off" is honored by discarding
	// output entirely rather than by level filtering.
	if strings.EqualFold(cfg.Level, "off") {
		l.SetLevel(logrus.PanicLevel)
		l.SetOutput(io.Discard)
		logger = &logrusAdapter{entry: logrus.NewEntry(l)}
		return nil
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)

	mw := NewMultiWriter().Add(os.Stdout)
	if cfg.FileAppender != nil {
		mw = mw.AddFileAppender(*cfg.FileAppender)
	}
	l.SetOutput(mw)

	logger = &logrusAdapter{entry: logrus.NewEntry(l)}
	return nil
}

func (l *logrusAdapter) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}
func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
func (l *logrusAdapter) IsInfoEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel)
}
