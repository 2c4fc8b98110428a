// Package logger wires zap for the job board.
//
// Services and handlers receive a named *zap.SugaredLogger from
// ComponentLogger; only cmd touches the package-level Logger directly.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging.
const (
	FieldRequestID     = "request_id"
	FieldUserID        = "user_id"
	FieldJobID         = "job_id"
	FieldApplicationID = "application_id"
	FieldCategoryID    = "category_id"
	FieldComponent     = "component"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatus        = "status"
	FieldDurationMS    = "duration_ms"
	FieldError         = "error"
	FieldCount         = "count"
	FieldSubject       = "subject"
	FieldAddress       = "address"
)

// Logger is the process-wide logger. It starts as a no-op so packages are
// safe to use before Initialize runs (tests, CLI flags parsing).
var Logger = zap.NewNop().Sugar()

// Initialize builds Logger. jsonOutput selects the production JSON encoder,
// otherwise a console encoder is used.
func Initialize(level string, jsonOutput bool) error {
	lvl := zap.NewAtomicLevel()
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}

	var zl *zap.Logger
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = lvl
		cfg.OutputPaths = []string{"stdout"}
		built, err := cfg.Build()
		if err != nil {
			return err
		}
		zl = built
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zl = zap.New(
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), lvl),
		)
	}

	Logger = zl.Sugar()
	return nil
}

// ComponentLogger returns a named child of Logger.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func Sync() {
	_ = Logger.Sync()
}
