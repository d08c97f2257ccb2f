// Package tracing is a thin façade over the schuko tracing framework. It gives
// the rest of the module package-level trace calls without every file having
// to deal with tracer selection, and lets tests redirect trace output to the
// testing.T log.
package tracing

import (
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// T returns the tracer this module logs to.
func T() tracing.Trace {
	return gtrace.CoreTracer
}

// Debugf logs a debug-level message to the module tracer.
func Debugf(format string, args ...interface{}) {
	T().Debugf(format, args...)
}

// Infof logs an info-level message to the module tracer.
func Infof(format string, args ...interface{}) {
	T().Infof(format, args...)
}

// Errorf logs an error-level message to the module tracer.
func Errorf(format string, args ...interface{}) {
	T().Errorf(format, args...)
}

// P attaches a key/value field to a trace entry.
func P(key string, val interface{}) tracing.Trace {
	return T().P(key, val)
}

// SetDebugLog switches the module tracer to a standard-log adapter at debug
// level. Intended for command-line tools with a --debug flag.
func SetDebugLog() {
	gtrace.CoreTracer = gologadapter.New()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
}

// SetTestingLog redirects the module tracer to t's log for the duration of the
// test.
func SetTestingLog(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	t.Cleanup(teardown)
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
}
