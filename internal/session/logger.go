// ABOUTME: Injected logger collaborator
// ABOUTME: Keeps the core testable without a process-wide logging singleton
package session

import "log"

// Logger is injected into the recorder so tests can run the core in
// isolation. The default implementation delegates to the standard logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

type stdLogger struct {
	debug bool
}

// NewStdLogger returns a Logger backed by the standard log package.
func NewStdLogger(debug bool) Logger {
	return &stdLogger{debug: debug}
}

func (l *stdLogger) Debugf(format string, args ...any) {
	if l.debug {
		log.Printf("DEBUG "+format, args...)
	}
}

func (l *stdLogger) Infof(format string, args ...any) {
	log.Printf(format, args...)
}

func (l *stdLogger) Errorf(format string, args ...any) {
	log.Printf("ERROR "+format, args...)
}
