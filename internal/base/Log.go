package base

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

/***************************************
 * Logger API
 ***************************************/

var LogGlobal = NewLogCategory("Global")

var gLogger Logger = NewLogger()

func GetLogger() Logger { return gLogger }

func LogDebug(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_DEBUG, msg, args...)
}
func LogTrace(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_TRACE, msg, args...)
}
func LogVeryVerbose(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_VERYVERBOSE, msg, args...)
}
func LogVerbose(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_VERBOSE, msg, args...)
}
func LogInfo(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_INFO, msg, args...)
}
func LogClaim(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_CLAIM, msg, args...)
}

var logWarningsSeenOnce sync.Map

func LogWarning(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_WARNING, msg, args...)
}
func LogWarningOnce(category *LogCategory, msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf(msg, args...)
	if _, loaded := logWarningsSeenOnce.LoadOrStore(formattedMsg, struct{}{}); !loaded {
		LogWarning(category, "%s", formattedMsg)
	}
}

func LogError(category *LogCategory, msg string, args ...interface{}) {
	gLogger.Log(category, LOG_ERROR, msg, args...)
}

func LogPanicErr(category *LogCategory, err error) {
	LogError(category, "💀 panic: caught error %v", err)
	FlushLog()
	panic(err)
}
func LogPanicIfFailed(category *LogCategory, err error) {
	if err != nil {
		LogPanicErr(category, err)
	}
}

func LogForwardln(msg ...string) {
	gLogger.Forwardln(msg...)
}

func IsLogLevelActive(level LogLevel) bool {
	return gLogger.IsVisible(level)
}
func FlushLog() {
	gLogger.Flush()
}

func SetLogVisibleLevel(level LogLevel) {
	gLogger.SetLevel(level)
}

/***************************************
 * Benchmark
 ***************************************/

type Closable interface {
	Close() error
}

type logBenchmark struct {
	category  *LogCategory
	message   string
	startedAt time.Time
}

func (x logBenchmark) Close() error {
	LogVeryVerbose(x.category, "%s took %v", x.message, time.Since(x.startedAt))
	return nil
}

// LogBenchmark logs the duration of a scope at very verbose level when closed.
func LogBenchmark(category *LogCategory, msg string, args ...interface{}) Closable {
	if !IsLogLevelActive(LOG_VERYVERBOSE) && !category.Level.IsVisible(LOG_VERYVERBOSE) {
		return logBenchmark{category: category, startedAt: time.Now()}
	}
	return logBenchmark{
		category:  category,
		message:   fmt.Sprintf(msg, args...),
		startedAt: time.Now(),
	}
}

/***************************************
 * Logger interface
 ***************************************/

type LogCategory struct {
	Name  string
	Level LogLevel
}

type LogWriter interface {
	io.Writer
	io.StringWriter
}

type Logger interface {
	IsVisible(LogLevel) bool

	SetLevel(LogLevel) LogLevel
	SetShowCategory(bool)
	SetShowTimestamp(bool)
	SetEnableColor(bool)
	SetWriter(LogWriter)

	Forwardln(msg ...string)

	Log(category *LogCategory, level LogLevel, msg string, args ...interface{})

	Flush()
}

/***************************************
 * Errors
 ***************************************/

func MakeError(msg string, args ...interface{}) error {
	// don't log here: this can lock recursively the logger
	return fmt.Errorf(msg, args...)
}

func MakeUnexpectedValueError(dst interface{}, any interface{}) error {
	return MakeError("unexpected <%T> value: %#v", dst, any)
}

/***************************************
 * Log Manager
 ***************************************/

type LogManager struct {
	barrierRW  sync.RWMutex
	categories map[string]*LogCategory
}

var gLogManager = LogManager{
	categories: make(map[string]*LogCategory, 32),
}

func GetLogManager() *LogManager { return &gLogManager }

func (x *LogManager) SetCategoryLevel(name string, level LogLevel) error {
	if category := x.FindCategory(name); category != nil {
		x.barrierRW.Lock()
		defer x.barrierRW.Unlock()
		category.Level = level
		return nil
	}
	return fmt.Errorf("unknown log category: %q", name)
}
func (x *LogManager) FindCategory(name string) *LogCategory {
	x.barrierRW.RLock()
	defer x.barrierRW.RUnlock()
	return x.categories[name]
}
func (x *LogManager) FindOrAddCategory(name string) (result *LogCategory) {
	if result = x.FindCategory(name); result == nil {
		x.barrierRW.Lock()
		defer x.barrierRW.Unlock()
		if result = x.categories[name]; result == nil {
			result = &LogCategory{Name: name, Level: LOG_FATAL}
			x.categories[name] = result
		}
	}
	return
}
func (x *LogManager) CategoryNames() []string {
	x.barrierRW.RLock()
	defer x.barrierRW.RUnlock()
	return SortedKeys(x.categories)
}

func NewLogCategory(name string) *LogCategory {
	return gLogManager.FindOrAddCategory(name)
}

/***************************************
 * Log level
 ***************************************/

type LogLevel int32

const (
	LOG_ALL LogLevel = iota
	LOG_DEBUG
	LOG_TRACE
	LOG_VERYVERBOSE
	LOG_VERBOSE
	LOG_INFO
	LOG_CLAIM
	LOG_WARNING
	LOG_ERROR
	LOG_FATAL
)

func (x LogLevel) IsVisible(level LogLevel) bool {
	return (int32(level) >= int32(x))
}
func (x LogLevel) Style(dst io.Writer) {
	switch x {
	case LOG_DEBUG:
		fmt.Fprint(dst, ANSI_FG0_MAGENTA, ANSI_FAINT)
	case LOG_TRACE:
		fmt.Fprint(dst, ANSI_FG0_CYAN, ANSI_FAINT)
	case LOG_VERYVERBOSE:
		fmt.Fprint(dst, ANSI_FG1_MAGENTA)
	case LOG_VERBOSE:
		fmt.Fprint(dst, ANSI_FG0_BLUE)
	case LOG_INFO:
		fmt.Fprint(dst, ANSI_FG1_WHITE)
	case LOG_CLAIM:
		fmt.Fprint(dst, ANSI_FG1_GREEN, ANSI_BOLD)
	case LOG_WARNING:
		fmt.Fprint(dst, ANSI_FG0_YELLOW)
	case LOG_ERROR, LOG_FATAL:
		fmt.Fprint(dst, ANSI_FG1_RED, ANSI_BOLD)
	}
}
func (x LogLevel) Header(dst io.Writer) {
	switch x {
	case LOG_DEBUG:
		fmt.Fprint(dst, "🐜 ")
	case LOG_TRACE:
		fmt.Fprint(dst, "👣 ")
	case LOG_VERYVERBOSE:
		fmt.Fprint(dst, "👥 ")
	case LOG_VERBOSE:
		fmt.Fprint(dst, "🗣️ ")
	case LOG_INFO:
		fmt.Fprint(dst, "🔹 ")
	case LOG_CLAIM:
		fmt.Fprint(dst, "❇️ ")
	case LOG_WARNING:
		fmt.Fprint(dst, "⚠️ ")
	case LOG_ERROR:
		fmt.Fprint(dst, "❌ ")
	case LOG_FATAL:
		fmt.Fprint(dst, "💀 ")
	}
}
func (x LogLevel) String() string {
	switch x {
	case LOG_ALL:
		return "ALL"
	case LOG_DEBUG:
		return "DEBUG"
	case LOG_TRACE:
		return "TRACE"
	case LOG_VERYVERBOSE:
		return "VERYVERBOSE"
	case LOG_VERBOSE:
		return "VERBOSE"
	case LOG_INFO:
		return "INFO"
	case LOG_CLAIM:
		return "CLAIM"
	case LOG_WARNING:
		return "WARNING"
	case LOG_ERROR:
		return "ERROR"
	case LOG_FATAL:
		return "FATAL"
	default:
		return fmt.Sprintf("LogLevel(%d)", int32(x))
	}
}
func (x *LogLevel) Set(in string) error {
	for it := LOG_ALL; it <= LOG_FATAL; it++ {
		if strings.EqualFold(it.String(), in) {
			*x = it
			return nil
		}
	}
	return MakeUnexpectedValueError(x, in)
}
func (x LogLevel) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}
func (x *LogLevel) UnmarshalText(data []byte) error {
	return x.Set(string(data))
}

/***************************************
 * Basic Logger
 ***************************************/

var startedAt = time.Now()

func Elapsed() time.Duration {
	return time.Since(startedAt)
}

type basicLogger struct {
	MinimumLevel  LogLevel
	ShowCategory  bool
	ShowTimestamp bool
	EnableColor   bool
	Writer        LogWriter

	barrier sync.Mutex
}

func NewLogger() Logger {
	return &basicLogger{
		MinimumLevel:  LOG_INFO,
		ShowCategory:  true,
		ShowTimestamp: false,
		EnableColor:   false,
		Writer:        os.Stderr,
	}
}

func (x *basicLogger) IsVisible(level LogLevel) bool {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	return x.MinimumLevel.IsVisible(level)
}

func (x *basicLogger) SetLevel(level LogLevel) LogLevel {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	previous := x.MinimumLevel
	if level < LOG_FATAL {
		x.MinimumLevel = level
	} else {
		x.MinimumLevel = LOG_FATAL
	}
	return previous
}
func (x *basicLogger) SetShowCategory(enabled bool) {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.ShowCategory = enabled
}
func (x *basicLogger) SetShowTimestamp(enabled bool) {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.ShowTimestamp = enabled
}
func (x *basicLogger) SetEnableColor(enabled bool) {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.EnableColor = enabled
}
func (x *basicLogger) SetWriter(dst LogWriter) {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.Writer = dst
}

func (x *basicLogger) Forwardln(msg ...string) {
	if len(msg) == 0 {
		return
	}

	x.barrier.Lock()
	defer x.barrier.Unlock()

	for _, it := range msg {
		x.Writer.WriteString(it)
	}
	if !strings.HasSuffix(msg[len(msg)-1], "\n") {
		x.Writer.WriteString("\n")
	}
}
func (x *basicLogger) Log(category *LogCategory, level LogLevel, msg string, args ...interface{}) {
	x.barrier.Lock()
	defer x.barrier.Unlock()

	// log level visible?
	if !x.MinimumLevel.IsVisible(level) && !category.Level.IsVisible(level) {
		return
	}

	sb := strings.Builder{}

	if x.ShowTimestamp {
		fmt.Fprintf(&sb, "%010.5f | ", Elapsed().Seconds())
	}

	if x.EnableColor {
		level.Style(&sb)
	}
	level.Header(&sb)

	if x.ShowCategory {
		fmt.Fprintf(&sb, " %s: ", category.Name)
	}

	fmt.Fprintf(&sb, msg, args...)

	if x.EnableColor {
		sb.WriteString(ANSI_RESET.String())
	}
	sb.WriteRune('\n')

	x.Writer.WriteString(sb.String())
}

func (x *basicLogger) Flush() {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	if f, ok := x.Writer.(interface{ Sync() error }); ok {
		f.Sync()
	}
}
