package utils

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant         = "debug"
	logLevelInfoStringConstant          = "info"
	logLevelWarnStringConstant          = "warn"
	logLevelErrorStringConstant         = "error"
	logFormatStructuredStringConstant   = "structured"
	logFormatConsoleStringConstant      = "console"
	jsonZapEncodingStringConstant       = "json"
	consoleZapEncodingStringConstant    = "console"
	standardErrorOutputPathConstant     = "stderr"
	unsupportedLogLevelMessageConstant  = "unsupported log level"
	unsupportedLogFormatMessageConstant = "unsupported log format"
	unsupportedSettingTemplateConstant  = "%w: %q"
	loggerBuildErrorTemplateConstant    = "unable to build %s logger: %w"
)

// LogLevel is the configured verbosity of the snapshots CLI, as written in
// common.log_level or SNAPSHOTS_COMMON_LOG_LEVEL.
type LogLevel string

// Verbosities accepted by CreateLogger.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat selects between JSON lines for log collectors and plain text for CI job output.
type LogFormat string

// Output formats accepted by CreateLogger.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// ErrUnsupportedLogLevel is wrapped when the configured verbosity is unknown.
var ErrUnsupportedLogLevel = errors.New(unsupportedLogLevelMessageConstant)

// ErrUnsupportedLogFormat is wrapped when the configured output format is unknown.
var ErrUnsupportedLogFormat = errors.New(unsupportedLogFormatMessageConstant)

var zapLevelsByLogLevel = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var zapEncodingsByLogFormat = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// LoggerFactory creates the stderr logger shared by every snapshots command.
type LoggerFactory struct{}

// NewLoggerFactory returns a LoggerFactory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger returns a logger writing to standard error. Level and format
// names are matched case-insensitively so environment overrides such as
// SNAPSHOTS_COMMON_LOG_LEVEL=DEBUG work.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	normalizedLevel := LogLevel(normalizeLoggingSetting(string(requestedLogLevel)))
	zapLevel, levelKnown := zapLevelsByLogLevel[normalizedLevel]
	if !levelKnown {
		return nil, fmt.Errorf(unsupportedSettingTemplateConstant, ErrUnsupportedLogLevel, string(requestedLogLevel))
	}

	normalizedFormat := LogFormat(normalizeLoggingSetting(string(requestedLogFormat)))
	zapEncoding, formatKnown := zapEncodingsByLogFormat[normalizedFormat]
	if !formatKnown {
		return nil, fmt.Errorf(unsupportedSettingTemplateConstant, ErrUnsupportedLogFormat, string(requestedLogFormat))
	}

	loggerConfiguration := stderrLoggerConfiguration(zapLevel, zapEncoding)
	if normalizedFormat == LogFormatConsole {
		applyCIConsoleSettings(&loggerConfiguration)
	}

	logger, buildError := loggerConfiguration.Build()
	if buildError != nil {
		return nil, fmt.Errorf(loggerBuildErrorTemplateConstant, normalizedFormat, buildError)
	}
	return logger, nil
}

func stderrLoggerConfiguration(level zapcore.Level, encoding string) zap.Config {
	loggerConfiguration := zap.NewProductionConfig()
	loggerConfiguration.Level = zap.NewAtomicLevelAt(level)
	loggerConfiguration.Encoding = encoding
	loggerConfiguration.OutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return loggerConfiguration
}

// Console output omits caller and stacktrace annotations.
func applyCIConsoleSettings(loggerConfiguration *zap.Config) {
	loggerConfiguration.DisableCaller = true
	loggerConfiguration.DisableStacktrace = true
	loggerConfiguration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
}

func normalizeLoggingSetting(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
