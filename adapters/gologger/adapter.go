package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultLoggerName is the named logger the module resolves when a caller
// does not pick one. It matches the name the launch service registers under.
const DefaultLoggerName = "ltitool"

// Resolve picks a logger with provider > logger > nop precedence. A blank
// name resolves the module logger so every component logs under one name
// unless a host opts out.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultLoggerName
	}
	return glog.Resolve(name, provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ForMaintenance resolves the logger the queue maintenance consumer writes
// to. The result is never nil.
func ForMaintenance(provider glog.LoggerProvider, logger glog.Logger) glog.Logger {
	_, resolved := Resolve(DefaultLoggerName, provider, logger)
	return glog.Ensure(resolved)
}

// ResolveForJob resolves the glog pair then returns the matching go-job
// bridges, so queue runtimes and the rest of the module share one logger.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
