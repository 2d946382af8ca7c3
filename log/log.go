package log

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	pjson "github.com/vectaro/go-common/json"
	pos "github.com/vectaro/go-common/os"
)

// Logger is the fundamental interface for all log operations. Log creates a
// log event from keyvals, a variadic sequence of alternating keys and values.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	Log(keyvals ...interface{}) error
}

// ErrMissingValue is appended to keyvals slices with odd length to substitute
// the missing value.
var ErrMissingValue = errors.New("(MISSING)")

// With returns a new contextual logger with keyvals prepended to those passed
// to calls to Log.
func With(logger Logger, keyvals ...interface{}) Logger {
	return log.With(logger, keyvals...)
}

// Info log helper
func Info(logger Logger, msg string, kv ...interface{}) error {
	a := []interface{}{msgKey, msg}
	if kv != nil {
		a = append(a, kv...)
	}
	return level.Info(logger).Log(a...)
}

// Debug log helper
func Debug(logger Logger, msg string, kv ...interface{}) error {
	a := []interface{}{msgKey, msg}
	if kv != nil {
		a = append(a, kv...)
	}
	return level.Debug(logger).Log(a...)
}

// Warn log helper
func Warn(logger Logger, msg string, kv ...interface{}) error {
	a := []interface{}{msgKey, msg}
	if kv != nil {
		a = append(a, kv...)
	}
	return level.Warn(logger).Log(a...)
}

// Error log helper
func Error(logger Logger, msg string, kv ...interface{}) error {
	a := []interface{}{msgKey, msg}
	if kv != nil {
		a = append(a, kv...)
	}
	return level.Error(logger).Log(a...)
}

// Fatal log helper. Logs at error level and then exits the process
func Fatal(logger Logger, msg string, kv ...interface{}) {
	a := []interface{}{msgKey, msg}
	if kv != nil {
		a = append(a, kv...)
	}
	level.Error(logger).Log(a...)
	os.Stderr.Sync()
	os.Stdout.Sync()
	pos.Exit(1)
}

const (
	pkgKey = "pkg"
	msgKey = "msg"
	tsKey  = "ts"
)

var (
	levelKey   = fmt.Sprintf("%v", level.Key())
	debugLevel = level.DebugValue().String()
	warnLevel  = level.WarnValue().String()
	errLevel   = level.ErrorValue().String()
	infoLevel  = level.InfoValue().String()
)

var (
	infoColor     = color.New(color.FgGreen)
	warnColor     = color.New(color.FgRed)
	errColor      = color.New(color.FgRed, color.Bold)
	debugColor    = color.New(color.FgBlue)
	pkgColor      = color.New(color.FgHiMagenta)
	msgColor      = color.New(color.FgWhite, color.Bold)
	msgLightColor = color.New(color.FgBlack, color.Bold)
	kvColor       = color.New(color.FgYellow)

	ansiStripper = regexp.MustCompile("\\x1b\\[[0-9;]*m")
)

type consoleLogger struct {
	w     io.Writer
	pkg   string
	theme ColorTheme
}

func (l *consoleLogger) Log(keyvals ...interface{}) error {
	n := (len(keyvals) + 1) / 2 // +1 to handle case when len is odd
	m := make(map[string]interface{}, n)
	m[pkgKey] = l.pkg
	keys := make([]string, 0)
	for i := 0; i < len(keyvals); i += 2 {
		k := keyvals[i]
		if s, ok := k.(string); ok && strings.HasPrefix(s, "$") {
			// for the console we ignore internal keys
			continue
		}
		var v interface{} = ErrMissingValue
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		merge(m, k, v)
		keys = append(keys, fmt.Sprintf("%v", k))
	}
	hasColors := !color.NoColor && l.theme != NoColorTheme
	lvl := fmt.Sprintf("%v", m[levelKey])
	var c *color.Color
	if hasColors {
		switch lvl {
		case debugLevel:
			c = debugColor
		case warnLevel:
			c = warnColor
		case errLevel:
			c = errColor
		default:
			lvl = infoLevel
			c = infoColor
		}
	} else if lvl != debugLevel && lvl != warnLevel && lvl != errLevel {
		lvl = infoLevel
	}
	pkg := m[pkgKey].(string)
	if len(pkg) > 7 {
		pkg = pkg[0:7]
	}
	var msg string
	if ms, ok := m[msgKey].(string); ok {
		msg = ansiStripper.ReplaceAllString(ms, "")
	} else {
		msg = fmt.Sprintf("%v", m[msgKey])
	}
	kv := make([]string, 0)
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case levelKey, pkgKey, tsKey, msgKey:
			continue
		}
		v := m[k]
		k = ansiStripper.ReplaceAllString(k, "")
		val := ansiStripper.ReplaceAllString(strings.TrimSpace(fmt.Sprintf("%v", v)), "")
		if hasColors {
			kv = append(kv, fmt.Sprintf("%s=%s", kvColor.Sprint(k), kvColor.Sprint(val)))
		} else {
			kv = append(kv, fmt.Sprintf("%s=%s", k, val))
		}
	}
	kvs := strings.Join(kv, " ")
	o := l.w
	if l.w == os.Stdout && !color.NoColor {
		// for windows, we must use the color.Output writer to get the escape codes properly output
		o = color.Output
	}
	if !hasColors {
		fmt.Fprintf(o, "%-6s %-8s %s %s\n", strings.ToUpper(lvl), pkg, msg, kvs)
	} else {
		mc := msgColor
		if l.theme == LightLogColorTheme {
			mc = msgLightColor
		}
		fmt.Fprintf(o, "%s %s %s %s\n", c.Sprintf("%-6s", strings.ToUpper(lvl)), pkgColor.Sprintf("%-8s", pkg), mc.Sprint(msg), kvs)
	}
	return nil
}

func merge(dst map[string]interface{}, k, v interface{}) {
	var key string
	switch x := k.(type) {
	case string:
		key = x
	case fmt.Stringer:
		key = safeString(x)
	default:
		key = fmt.Sprint(x)
	}

	// json.Marshaler and encoding.TextMarshaler take priority over err.Error()
	// and v.String() since json.Marshal (called later) does that by default
	switch x := v.(type) {
	case json.Marshaler:
	case encoding.TextMarshaler:
	case error:
		v = safeError(x)
	case fmt.Stringer:
		v = safeString(x)
	}

	dst[key] = v
}

func safeString(str fmt.Stringer) (s string) {
	defer func() {
		if panicVal := recover(); panicVal != nil {
			if v := reflect.ValueOf(str); v.Kind() == reflect.Ptr && v.IsNil() {
				s = "NULL"
			} else {
				panic(panicVal)
			}
		}
	}()
	s = str.String()
	return
}

func safeError(err error) (s interface{}) {
	defer func() {
		if panicVal := recover(); panicVal != nil {
			if v := reflect.ValueOf(err); v.Kind() == reflect.Ptr && v.IsNil() {
				s = nil
			} else {
				panic(panicVal)
			}
		}
	}()
	s = err.Error()
	return
}

// OutputFormat is the logging output format
type OutputFormat byte

const (
	// JSONLogFormat will output JSON formatted logs
	JSONLogFormat OutputFormat = 1 << iota
	// LogFmtLogFormat will output logfmt formatted logs
	LogFmtLogFormat
	// ConsoleLogFormat will output logfmt colored logs to console
	ConsoleLogFormat
)

// ColorTheme is the logging color theme
type ColorTheme byte

const (
	// DarkLogColorTheme is the default color theme for console logging (if enabled)
	DarkLogColorTheme ColorTheme = 1 << iota
	// LightLogColorTheme is for consoles that are light (vs dark)
	LightLogColorTheme
	// NoColorTheme will turn off console colors
	NoColorTheme
)

// Level is the minimum logging level
type Level byte

const (
	// InfoLevel will only log level and above (default)
	InfoLevel Level = 1 << iota
	// DebugLevel will log all messages
	DebugLevel
	// WarnLevel will only log warning and above
	WarnLevel
	// ErrorLevel will only log error and above
	ErrorLevel
	// NoneLevel will no log at all
	NoneLevel
)

// LevelFromString will return a Level const from a named string
func LevelFromString(level string) Level {
	switch strings.ToLower(level) {
	case "info", "":
		return InfoLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error", "fatal":
		return ErrorLevel
	}
	return NoneLevel
}

// LoggerCloser returns a logger which implements a Close interface
type LoggerCloser interface {
	Logger
	Close() error
}

type logcloser struct {
	w io.WriteCloser
	l Logger
	o sync.Once
}

// Log will dispatch the log to the next logger
func (l *logcloser) Log(kv ...interface{}) error {
	return l.l.Log(kv...)
}

// Close will close the underlying writer
func (l *logcloser) Close() error {
	l.o.Do(func() {
		if w, ok := l.l.(LoggerCloser); ok {
			w.Close()
		}
		// don't close the main process stdout/stderr
		if l.w == os.Stdout || l.w == os.Stderr {
			return
		}
		l.w.Close()
	})
	return nil
}

type nocloselog struct {
	l Logger
}

// Log will dispatch the log to the next logger
func (l *nocloselog) Log(kv ...interface{}) error {
	return l.l.Log(kv...)
}

// Close will close the underlying writer
func (l *nocloselog) Close() error {
	if w, ok := l.l.(LoggerCloser); ok {
		return w.Close()
	}
	return nil
}

// WithLogOptions is a callback for customizing the logger event further before returning
type WithLogOptions func(logger Logger) Logger

// WithDefaultTimestampLogOption will add the timestamp in UTC to the ts key
func WithDefaultTimestampLogOption() WithLogOptions {
	return func(logger Logger) Logger {
		return log.With(logger, tsKey, log.DefaultTimestampUTC)
	}
}

// NewNoOpTestLogger is a test logger that doesn't log at all
func NewNoOpTestLogger() LoggerCloser {
	return &nocloselog{level.NewFilter(log.NewLogfmtLogger(os.Stderr), level.AllowError())}
}

type maskingLogger struct {
	next Logger
}

var maskedKeys = map[string]bool{
	"password":   true,
	"passwd":     true,
	"secret":     true,
	"token":      true,
	"access_key": true,
	"api_key":    true,
	"apikey":     true,
}

var maskedPattern = regexp.MustCompile("(?i)(password|passwd|secret|access_key|token|apikey|api_key)")

func mask(v interface{}) string {
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	l := len(s)
	if l == 0 {
		return s
	}
	if l == 1 {
		return "*"
	}
	h := int(l / 2)
	return s[0:h] + strings.Repeat("*", l-h)
}

func keyMatches(k string) bool {
	s := strings.ToLower(k)
	return maskedKeys[s] || maskedPattern.MatchString(s)
}

// MaskKV will mask a key value pair and return the new value and whether
// or not it changed anything
func MaskKV(k, v string) (string, bool) {
	if keyMatches(k) {
		nv := mask(v)
		if nv != v {
			return nv, true
		}
	}
	return v, false
}

func (l *maskingLogger) Log(keyvals ...interface{}) error {
	// we have to make a copy as to not have a race
	newvals := append([]interface{}{}, keyvals...)
	for i := 0; i < len(newvals); i += 2 {
		k := newvals[i]
		var v interface{} = ErrMissingValue
		if i+1 < len(newvals) {
			v = newvals[i+1]
		}
		s, ok := k.(string)
		if !ok || v == ErrMissingValue {
			continue
		}
		if keyMatches(s) {
			nv := mask(v)
			if nv != fmt.Sprintf("%v", v) {
				newvals[i+1] = nv
			}
			continue
		}
		switch val := v.(type) {
		case map[string]string:
			var found bool
			for k, v := range val {
				nv, changed := MaskKV(k, v)
				if changed {
					found = true
					val[k] = nv
				}
			}
			if found {
				newvals[i+1] = pjson.Stringify(val)
			}
		case map[string]interface{}:
			var found bool
			for k, v := range val {
				if keyMatches(k) {
					nv := mask(v)
					if nv != fmt.Sprintf("%v", v) {
						found = true
						val[k] = nv
					}
				}
			}
			if found {
				newvals[i+1] = pjson.Stringify(val)
			}
		}
	}
	return l.next.Log(newvals...)
}

// Close will close the underlying logger
func (l *maskingLogger) Close() error {
	if w, ok := l.next.(LoggerCloser); ok {
		return w.Close()
	}
	return nil
}

// newMaskingLogger returns a logger that will attempt to mask certain sensitive
// details such as credentials and api keys
func newMaskingLogger(logger Logger) *maskingLogger {
	return &maskingLogger{logger}
}

// dedupelogger will de-dupe the keys (LIFO) excluding msg, level, etc
// such that we only emit one unique key per log message
type dedupelogger struct {
	next Logger
}

func (l *dedupelogger) Log(keyvals ...interface{}) error {
	newvals := make([]interface{}, 0)
	var kvs map[string]interface{}
	for i := 0; i < len(keyvals); i += 2 {
		k := keyvals[i]
		var v interface{} = ErrMissingValue
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		if k == msgKey || k == levelKey {
			newvals = append(newvals, k, v)
		} else {
			if kvs == nil {
				kvs = make(map[string]interface{})
			}
			kvs[fmt.Sprintf("%s", k)] = v
		}
	}
	if len(kvs) > 0 {
		keys := make([]string, 0, len(kvs))
		for k := range kvs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			newvals = append(newvals, k, kvs[k])
		}
	}
	return l.next.Log(newvals...)
}

// Close will close the underlying logger
func (l *dedupelogger) Close() error {
	if w, ok := l.next.(LoggerCloser); ok {
		return w.Close()
	}
	return nil
}

// track the depth from which the call stack should track the call site
const callStackDepth = 9

// NewLogger will create a new logger
func NewLogger(writer io.Writer, format OutputFormat, theme ColorTheme, minLevel Level, pkg string, opts ...WithLogOptions) LoggerCloser {
	// short circuit it all if log level is none
	if minLevel == NoneLevel {
		return &nocloselog{log.NewNopLogger()}
	}

	var logger Logger

	loggers := make([]Logger, 0)

	switch format {
	case JSONLogFormat:
		logger = log.NewJSONLogger(writer)
	case LogFmtLogFormat:
		logger = log.NewLogfmtLogger(writer)
	case ConsoleLogFormat:
		logger = &consoleLogger{writer, pkg, theme}
	}

	loggers = append(loggers, logger)

	// turn off caller for test package
	allowCaller := pkg != "test"

	switch minLevel {
	case DebugLevel:
		logger = level.NewFilter(logger, level.AllowDebug())
		if allowCaller {
			logger = log.With(logger, "caller", log.Caller(callStackDepth))
		}
	case InfoLevel:
		logger = level.NewFilter(logger, level.AllowInfo())
	case WarnLevel:
		logger = level.NewFilter(logger, level.AllowWarn())
	case ErrorLevel:
		logger = level.NewFilter(logger, level.AllowError())
		if allowCaller {
			logger = log.With(logger, "caller", log.Caller(callStackDepth))
		}
	}

	// allow any functions to transform the logger further before we return
	for _, o := range opts {
		logger = o(logger)
		loggers = append(loggers, logger)
	}

	// make sure we close our loggers on exit
	pos.OnExit(func(_ int) {
		for _, l := range loggers {
			if lc, ok := l.(LoggerCloser); ok {
				lc.Close()
			}
		}
	})

	logger = log.With(logger, pkgKey, pkg)

	// create a masking logger
	logger = newMaskingLogger(logger)

	// make sure that all messages have a level
	logger = level.NewInjector(logger, level.InfoValue())

	// make sure we de-dupe log keys
	logger = &dedupelogger{logger}

	// if the writer implements the io.WriteCloser we wrap the
	// return value in a write closer interface
	if w, ok := writer.(io.WriteCloser); ok {
		return &logcloser{w: w, l: logger}
	}

	// wrap in a type that suppresses the call to Close
	return &nocloselog{logger}
}
