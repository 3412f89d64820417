package engine

import (
	"sync"

	"github.com/drblury/sigtap/internal/engine/logging"
)

type loggedEntry struct {
	level  string
	msg    string
	fields logging.LogFields
	err    error
}

type logRecorder struct {
	mu   sync.Mutex
	logs []loggedEntry
}

func (r *logRecorder) append(entry loggedEntry) {
	r.mu.Lock()
	r.logs = append(r.logs, entry)
	r.mu.Unlock()
}

func (r *logRecorder) entries() []loggedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := make([]loggedEntry, len(r.logs))
	copy(clone, r.logs)
	return clone
}

// captureLogger records everything logged through it so tests can assert on
// messages and fields. With children share the same recorder.
type captureLogger struct {
	rec    *logRecorder
	fields logging.LogFields
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{rec: &logRecorder{}}
}

func (c *captureLogger) With(fields logging.LogFields) logging.ServiceLogger {
	return &captureLogger{rec: c.rec, fields: mergeFields(c.fields, fields)}
}

func (c *captureLogger) Debug(msg string, fields logging.LogFields) {
	c.append("debug", msg, nil, fields)
}

func (c *captureLogger) Info(msg string, fields logging.LogFields) {
	c.append("info", msg, nil, fields)
}

func (c *captureLogger) Error(msg string, err error, fields logging.LogFields) {
	c.append("error", msg, err, fields)
}

func (c *captureLogger) Trace(msg string, fields logging.LogFields) {
	c.append("trace", msg, nil, fields)
}

func (c *captureLogger) append(level, msg string, err error, fields logging.LogFields) {
	c.rec.append(loggedEntry{
		level:  level,
		msg:    msg,
		fields: mergeFields(c.fields, fields),
		err:    err,
	})
}

func (c *captureLogger) messages() []string {
	entries := c.rec.entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.msg)
	}
	return out
}

func (c *captureLogger) hasMessage(msg string) bool {
	for _, got := range c.messages() {
		if got == msg {
			return true
		}
	}
	return false
}

func (c *captureLogger) countMessage(msg string) int {
	n := 0
	for _, got := range c.messages() {
		if got == msg {
			n++
		}
	}
	return n
}

func mergeFields(base, extra logging.LogFields) logging.LogFields {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(logging.LogFields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
