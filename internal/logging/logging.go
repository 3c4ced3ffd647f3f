// Package logging wires up the process-wide zerolog logger, in the same
// shape hmcalister-TwentyQuestions/main.go does: timestamped + caller-tagged
// entries to a console writer when no log file is set; with a log file,
// JSON to a rotating lumberjack sink, with the console writer layered in
// under debug.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global zerolog logger and returns it for callers that
// want a handle rather than using the package-level log.Logger.
func Setup(logFile string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	base := log.With().Timestamp().Caller().Logger()

	if logFile == "" {
		log.Logger = base.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
		return log.Logger
	}

	rotator := &lumberjack.Logger{
		Filename: logFile,
		MaxSize:  100,
		MaxAge:   31,
		Compress: true,
	}

	if debug {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		log.Logger = base.Output(zerolog.MultiLevelWriter(console, rotator))
	} else {
		log.Logger = base.Output(rotator)
	}

	return log.Logger
}
