// Package logging configures the process-wide go-logging backends.
//
// Packages obtain their own module logger with logging.MustGetLogger and
// inherit whatever backend Setup installed.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/op/go-logging"
)

const defaultLogFilename = "homebroker.log"

var (
	fileLogFormat   = logging.MustStringFormatter(`%{time:2006-01-02T15:04:05} [%{level}] [%{module}] %{message}`)
	stdoutLogFormat = logging.MustStringFormatter(`%{color:reset}%{color}%{time:15:04:05.000} [%{level}] [%{module}] %{message}`)
)

// Setup installs a colored stdout backend and, when logDir is set, a
// rotating file backend. Unknown levels fall back to INFO.
func Setup(logDir, logLevel string) {
	backendStdout := logging.NewLogBackend(os.Stdout, "", 0)
	backendStdoutFormatter := logging.NewBackendFormatter(backendStdout, stdoutLogFormat)

	var leveled logging.LeveledBackend
	if logDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, defaultLogFilename),
			MaxSize:    10, // Megabytes
			MaxBackups: 3,
			MaxAge:     30, // Days
		}
		backendFile := logging.NewLogBackend(rotator, "", 0)
		backendFileFormatter := logging.NewBackendFormatter(backendFile, fileLogFormat)
		leveled = logging.MultiLogger(backendStdoutFormatter, backendFileFormatter)
	} else {
		leveled = logging.AddModuleLevel(backendStdoutFormatter)
	}
	leveled.SetLevel(ParseLevel(logLevel), "")
	logging.SetBackend(leveled)
}

// ParseLevel maps a config string onto a go-logging level.
func ParseLevel(logLevel string) logging.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return logging.DEBUG
	case "info":
		return logging.INFO
	case "notice":
		return logging.NOTICE
	case "warning", "warn":
		return logging.WARNING
	case "error":
		return logging.ERROR
	case "critical":
		return logging.CRITICAL
	default:
		return logging.INFO
	}
}
