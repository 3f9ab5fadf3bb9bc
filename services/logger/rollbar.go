package logsvc

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/soma/core"
)

// RollbarLogger prints every entry to a std logger and forwards it to Rollbar.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// New returns a logger for one subsystem, e.g. New("API", conf) prints "API : ...".
func New(subsystem string, conf *core.Config) *RollbarLogger {
	return NewRollbarLogger(log.New(os.Stdout, subsystem+" : ", log.LstdFlags|log.Lmicroseconds|log.LUTC), conf)
}

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug && !conf.TestMode && conf.RollbarToken != "")
	return &RollbarLogger{std: std}
}

// NewDiscardLogger returns a logger that prints nothing. Rollbar stays disabled.
func NewDiscardLogger() *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{std: log.New(io.Discard, "", 0)}
}

type entry struct {
	msg    string
	err    error
	extras map[string]interface{}
	person *core.Person
	other  []interface{}
}

// parse splits args into the parts Rollbar understands.
// Several maps are merged; the first Person wins.
func parse(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.other = append(e.other, v)
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.extras[k] = val
			}
		case core.Person:
			if e.person == nil {
				p := v
				e.person = &p
			}
		default:
			e.other = append(e.other, v)
		}
	}
	return e
}

func (e entry) rollbarArgs() []interface{} {
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Username, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}

	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if len(e.extras) > 0 || len(e.other) > 0 {
		extras := make(map[string]interface{}, len(e.extras)+1)
		for k, v := range e.extras {
			extras[k] = v
		}
		if len(e.other) > 0 {
			extras["args"] = e.other
		}
		args = append(args, extras)
	}
	return args
}

// String renders the entry on one line: msg k=v... followed by the error.
func (e entry) String() string {
	var b strings.Builder
	b.WriteString(e.msg)

	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	if e.person != nil {
		_, _ = fmt.Fprintf(&b, " person=%s", e.person.ID)
	}
	for _, o := range e.other {
		_, _ = fmt.Fprintf(&b, " %v", o)
	}
	if e.err != nil {
		_, _ = fmt.Fprintf(&b, ": %+v", e.err)
	}
	return b.String()
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	e := parse(msg, args)
	rollbar.Debug(e.rollbarArgs()...)
	l.std.Println(e)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	e := parse(msg, args)
	rollbar.Info(e.rollbarArgs()...)
	l.std.Println(e)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := parse(msg, args)
	rollbar.Warning(e.rollbarArgs()...)
	l.std.Println(e)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := parse(msg, args)
	rollbar.Error(e.rollbarArgs()...)
	l.std.Println(e)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := parse(msg, args)
	rollbar.Critical(e.rollbarArgs()...)
	rollbar.Wait()
	l.std.Fatal(e)
}
