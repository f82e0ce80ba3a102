package datatrue

import (
	"fmt"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// logAdapter routes retryablehttp's logging through logrus.
type logAdapter struct {
	log *logrus.Entry
}

var _ retryablehttp.LeveledLogger = logAdapter{}

func (a logAdapter) fields(keysAndValues []interface{}) *logrus.Entry {
	entry := a.log
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry = entry.WithField(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	return entry
}

func (a logAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.fields(keysAndValues).Error(msg)
}

func (a logAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.fields(keysAndValues).Info(msg)
}

// Debug is very chatty in retryablehttp (one line per request), so it goes to trace.
func (a logAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.fields(keysAndValues).Trace(msg)
}

func (a logAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.fields(keysAndValues).Warn(msg)
}
