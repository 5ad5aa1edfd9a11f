package cli

import (
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blockform/blockform/logging"
)

//nolint:gochecknoglobals
var logLevels = []string{"debug", "info", "warning", "error"}

type loggingFlags struct {
	logLevel     string
	fileLogLevel string
	logFile      string
	disableColor bool
	forceColor   bool

	logFileWriter zapcore.WriteSyncer
}

func (c *loggingFlags) setup(svc appServices, app *kingpin.Application) {
	app.Flag("log-level", "Console log level").Default("info").EnumVar(&c.logLevel, logLevels...)
	app.Flag("file-log-level", "File log level").Default("debug").EnumVar(&c.fileLogLevel, logLevels...)
	app.Flag("log-file", "Append logs to the given file in JSON format").Envar(svc.EnvName("BLOCKFORM_LOG_FILE")).StringVar(&c.logFile)
	app.Flag("disable-color", "Disable color output").Hidden().Envar(svc.EnvName("BLOCKFORM_DISABLE_COLOR")).BoolVar(&c.disableColor)
	app.Flag("force-color", "Force color output even when not on a terminal").Hidden().Envar(svc.EnvName("BLOCKFORM_FORCE_COLOR")).BoolVar(&c.forceColor)

	app.PreAction(c.initialize)
}

func (c *loggingFlags) initialize(_ *kingpin.ParseContext) error {
	if c.disableColor {
		color.NoColor = true
	}

	if c.forceColor {
		color.NoColor = false
	}

	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec
		if err != nil {
			return errors.Wrap(err, "unable to open log file")
		}

		c.logFileWriter = f
	}

	return nil
}

func logLevelFromFlag(levelString string) zapcore.Level {
	switch levelString {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

// consoleLoggerFactory builds the logger factory used by command actions,
// writing to the given writer at the level selected with --log-level and,
// when --log-file is set, to the file as JSON at its own level.
func (c *loggingFlags) consoleLoggerFactory(w io.Writer) logging.LoggerFactory {
	ec := zapcore.EncoderConfig{
		TimeKey:          zapcore.OmitKey,
		LevelKey:         "L",
		NameKey:          zapcore.OmitKey,
		CallerKey:        zapcore.OmitKey,
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "M",
		StacktraceKey:    zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}

	if color.NoColor {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(ec),
		zapcore.AddSync(w),
		logLevelFromFlag(c.logLevel),
	)

	if c.logFileWriter != nil {
		core = zapcore.NewTee(core, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			c.logFileWriter,
			logLevelFromFlag(c.fileLogLevel),
		))
	}

	l := zap.New(core).Sugar()

	return func(module string) logging.Logger {
		return l
	}
}
