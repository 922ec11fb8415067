package global

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lunfardo314/statecall/util"
	"github.com/lunfardo314/statecall/util/set"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global carries the logger, trace tags, the metrics registry and the stop context of the process
type Global struct {
	*zap.SugaredLogger
	*sync.WaitGroup
	ctx             context.Context
	stopFun         context.CancelFunc
	once            *sync.Once
	enabledTrace    atomic.Bool
	traceTagsMutex  sync.RWMutex
	traceTags       set.Set[string]
	metricsRegistry *prometheus.Registry
}

const defaultLoggerName = "[statecall]"

func New(log *zap.SugaredLogger) *Global {
	ctx, cancelFun := context.WithCancel(context.Background())
	return &Global{
		SugaredLogger:   log,
		WaitGroup:       &sync.WaitGroup{},
		ctx:             ctx,
		stopFun:         cancelFun,
		once:            &sync.Once{},
		traceTags:       set.New[string](),
		metricsRegistry: prometheus.NewRegistry(),
	}
}

func NewDefault() *Global {
	return New(NewLogger(defaultLoggerName, zapcore.InfoLevel, nil, ""))
}

// NewFromConfig creates global object with the logger configured by viper keys 'logger.*'
// and trace tags enabled from 'trace.tags'
func NewFromConfig() *Global {
	outputs := make([]string, 0)
	for _, o := range strings.Split(viper.GetString(ConfigKeyLoggerOutput), ",") {
		if o = strings.TrimSpace(o); o != "" {
			outputs = append(outputs, o)
		}
	}
	ret := New(NewLogger(
		defaultLoggerName,
		LevelFromString(viper.GetString(ConfigKeyLoggerLevel)),
		outputs,
		viper.GetString(ConfigKeyLoggerTimeLyt),
	))
	if tags := viper.GetStringSlice(ConfigKeyTraceTags); len(tags) > 0 {
		ret.EnableTraceTags(tags...)
	}
	return ret
}

func (l *Global) MarkStartedComponent() {
	l.WaitGroup.Add(1)
}

func (l *Global) MarkStoppedComponent() {
	l.WaitGroup.Done()
}

func (l *Global) Stop() {
	l.stopFun()
}

func (l *Global) Ctx() context.Context {
	return l.ctx
}

func (l *Global) Wait() {
	l.WaitGroup.Wait()
	l.once.Do(func() {
		l.Log().Info("all components stopped")
	})
}

func (l *Global) Log() *zap.SugaredLogger {
	return l.SugaredLogger
}

func (l *Global) MetricsRegistry() *prometheus.Registry {
	return l.metricsRegistry
}

func (l *Global) EnableTraceTags(tags ...string) {
	l.traceTagsMutex.Lock()
	for _, t := range tags {
		for _, t1 := range strings.Split(t, ",") {
			if t1 = strings.TrimSpace(t1); t1 != "" {
				l.traceTags.Insert(t1)
			}
		}
	}
	l.enabledTrace.Store(!l.traceTags.IsEmpty())
	l.traceTagsMutex.Unlock()

	for _, tag := range tags {
		l.Tracef(tag, "trace tag enabled")
	}
}

func (l *Global) DisableTraceTag(tag string) {
	l.traceTagsMutex.Lock()
	defer l.traceTagsMutex.Unlock()

	l.traceTags.Remove(tag)
	l.enabledTrace.Store(!l.traceTags.IsEmpty())
}

func (l *Global) TraceLog(log *zap.SugaredLogger, tag string, format string, args ...any) {
	if !l.enabledTrace.Load() {
		return
	}

	l.traceTagsMutex.RLock()
	defer l.traceTagsMutex.RUnlock()

	for _, t := range strings.Split(tag, ",") {
		if l.traceTags.Contains(t) {
			log.Infof("TRACE(%s) %s", t, fmt.Sprintf(format, util.EvalLazyArgs(args...)...))
			return
		}
	}
}

func (l *Global) Tracef(tag string, format string, args ...any) {
	l.TraceLog(l.Log(), tag, format, args...)
}
