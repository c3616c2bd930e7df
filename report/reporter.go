package report

import (
	"strings"
	"sync"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during program execution.  The reporter respects the set
// log level and is synchronized: its methods can be safely called from multiple
// goroutines.
type Reporter struct {
	// The mutex used to synchonize different report calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of errors and warnings reported so far.
	errorCount, warningCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
	LogLevelDebug          // Also displays generated code and dropped imports.
)

// rep is the global reporter instance.
var rep = newReporter(LogLevelVerbose)

// newReporter creates a new reporter with the given log level.
func newReporter(logLevel int) *Reporter {
	return &Reporter{
		m:        &sync.Mutex{},
		logLevel: logLevel,
	}
}

// InitReporter initializes the global reporter to the given log level.  Any
// previously accumulated error and warning counts are discarded.
func InitReporter(logLevel int) {
	rep = newReporter(logLevel)
}

// logLevelNames maps the accepted log level names to their log levels.  `info`
// is accepted as an alias for `verbose`.
var logLevelNames = map[string]int{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"verbose": LogLevelVerbose,
	"info":    LogLevelVerbose,
	"debug":   LogLevelDebug,
}

// LogLevelNames is the list of log level names accepted on the command-line.
var LogLevelNames = []string{"silent", "error", "warn", "verbose", "info", "debug"}

// ParseLogLevel converts a log level name into a log level.  The lookup is case
// insensitive.  The returned boolean is false if the name is not recognized.
func ParseLogLevel(name string) (int, bool) {
	level, ok := logLevelNames[strings.ToLower(strings.TrimSpace(name))]
	return level, ok
}
