package combat

import (
	"math/rand"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//Presenter receives fire-and-forget cues for animation, particles and audio
type Presenter interface {
	Present(cue string, at cp.Vector)
}

type PresenterFunc func(cue string, at cp.Vector)

func (f PresenterFunc) Present(cue string, at cp.Vector) {
	f(cue, at)
}

//Services bundles the collaborators handed to every component constructor
type Services struct {
	Log       *zap.SugaredLogger
	Scheduler Scheduler
	Presenter Presenter
	Rand      *rand.Rand
}

//Logger never returns nil
func (s Services) Logger() *zap.SugaredLogger {
	if s.Log == nil {
		return zap.NewNop().Sugar()
	}
	return s.Log
}

func (s Services) Present(cue string, at cp.Vector) {
	if s.Presenter == nil || cue == "" {
		return
	}
	s.Presenter.Present(cue, at)
}

//WithScheduler returns a copy using sch for timed callbacks
func (s Services) WithScheduler(sch Scheduler) Services {
	s.Scheduler = sch
	return s
}

type LogConfig struct {
	LogLevel      string `yaml:"LogLevel"`
	LogFile       string `yaml:"LogFile"`
	LogShowCaller bool   `yaml:"LogShowCaller"`
}

//NewLogger builds the development style logger used by the simulator
func NewLogger(p LogConfig) (*zap.SugaredLogger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	switch p.LogLevel {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.StacktraceKey = ""
	if !p.LogShowCaller {
		config.EncoderConfig.CallerKey = ""
	}
	if p.LogFile != "" {
		config.OutputPaths = []string{p.LogFile}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
