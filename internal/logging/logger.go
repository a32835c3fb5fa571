package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/jogtracker/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger. The returned func closes the log file (if any).
func Setup(params LoggerSetupParams) (func(), error) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if params.SentryEnabled {
		err := sentry.Init(sentry.ClientOptions{
			Environment:      params.Environment,
			Dsn:              params.SentryDSN,
			TracesSampleRate: 1.0,
			ServerName:       params.SentryServerName,
		})
		if err != nil {
			logrus.Errorf("sentry.Init: %s", err)
		} else {
			logrus.AddHook(NewSentryHook([]logrus.Level{
				logrus.PanicLevel,
				logrus.FatalLevel,
				logrus.ErrorLevel,
			}))
			logrus.Infoln("Sentry set up successfully")
		}
	}

	logrus.SetLevel(GetLevel(params.LogLevel))

	out, err := Output(params.LogFileName, params.LogToStdout)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(out)

	return func() {
		if c, ok := out.(io.Closer); ok && out != io.Writer(os.Stdout) {
			if err := c.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "close log output: %s\n", err)
			}
		}
	}, nil
}

// Output returns where logs go: stdout only when logFileName is empty, a rotated
// log file otherwise (plus stdout when logToStdout is set).
func Output(logFileName string, logToStdout bool) (io.Writer, error) {
	if logFileName == "" {
		logrus.Println("writing logs only to STDOUT")
		return os.Stdout, nil
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	logsDir := filepath.Dir(logFileName)
	exists, err := pkg.PathExists(logsDir, true)
	if err != nil {
		return nil, fmt.Errorf("check logs dir: %w", err)
	}
	if !exists {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:  logFileName,
		MaxSize:   50,    // megabytes
		LocalTime: false, // false -> use UTC
		Compress:  true,  // disabled by default
		MaxAge:    90,    // days
	}

	if logToStdout {
		logrus.Println("writing logs to file and STDOUT")
		return pkg.NewCombinedWriter(os.Stdout, lumberJackLogger), nil
	}
	return lumberJackLogger, nil
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "info":
		return logrus.InfoLevel
	case "trace":
		return logrus.TraceLevel
	case "warn":
		return logrus.WarnLevel
	default:
		return logrus.TraceLevel
	}
}
