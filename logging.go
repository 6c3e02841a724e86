package cpf

import "github.com/sirupsen/logrus"

// defaultLogger is the package-level logger used by any Framework that
// does not override it via WithLogger. The framework only ever needs two
// severities, informational and error, matching the scope note that a
// richer log-sink abstraction is an external collaborator, not part of
// the core.
var defaultLogger = logrus.StandardLogger()

// SetDefaultLogger replaces the package-level default logger. It is
// primarily useful for tests that want to capture or silence log output.
func SetDefaultLogger(l *logrus.Logger) {
	defaultLogger = l
}

func (fw *Framework) logger() *logrus.Logger {
	if fw.opts.logger != nil {
		return fw.opts.logger
	}
	return defaultLogger
}
