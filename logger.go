/*
   Copyright 2021 Joseph Cumines

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package carebt

import "github.com/sirupsen/logrus"

// Logger models the abstract sink every node and the runner log through.
// The core never depends on a concrete logging backend; callers pass one to
// NewBehaviorTreeRunner (for example NewLogrusLogger), or nil for no logging.
type Logger interface {
	Trace(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// logrusLogger adapts a *logrus.Logger to the Logger interface.
type logrusLogger struct {
	entry *logrus.Logger
}

// NewLogrusLogger returns a Logger backed by logrus, using logrus' own
// default instance when l is nil.
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{entry: l}
}

func (l logrusLogger) Trace(format string, args ...interface{}) { l.entry.Tracef(format, args...) }
func (l logrusLogger) Debug(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l logrusLogger) Info(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l logrusLogger) Warn(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l logrusLogger) Error(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// noopLogger discards everything; used when a runner is constructed with a
// nil Logger.
type noopLogger struct{}

func (noopLogger) Trace(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
