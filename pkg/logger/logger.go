package logger

import (
	"bondfund/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("zap",
	fx.Provide(
		New,
	),
)

type Params struct {
	fx.In
	Cfg *config.Config
}

// New builds the process logger and installs it as the zap global. Development
// gets the console encoder; production gets structured JSON on stdout.
func New(p Params) *zap.Logger {
	log := zap.Must(zap.NewDevelopment())

	if p.Cfg.AppEnv == "production" {
		c := zap.NewProductionConfig()
		c.EncoderConfig.TimeKey = "timestamp"
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		c.EncoderConfig.StacktraceKey = "stacktrace"
		c.EncoderConfig.LevelKey = "severity"
		c.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		c.EncoderConfig.CallerKey = "caller"
		c.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		c.Encoding = "json"
		c.OutputPaths = []string{"stdout"}
		c.ErrorOutputPaths = []string{"stderr"}

		log = zap.Must(c.Build())
	}

	log = log.With(
		zap.String("env", p.Cfg.AppEnv),
		zap.String("service_name", p.Cfg.AppName),
	)

	zap.ReplaceGlobals(log)

	return log
}
