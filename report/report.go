// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package report - forward errors to the remote tracker
//
// All text passing through this package has the configured secret
// (the database password) replaced before it is logged or sent.
package report

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/getsentry/sentry-go"

	"github.com/bitmark-inc/ledgerd/fault"
)

// exit code used after an unrecovered panic
const FatalExitCode = 2

const (
	flushTimeout = 2 * time.Second
	redacted     = "********"
)

var globalData struct {
	sync.RWMutex
	secret      string
	remote      bool
	initialised bool
}

// replaced by tests
var exit = os.Exit

// Initialise - set the secret to scrub and, if dsn is not empty,
// start the remote client
func Initialise(dsn string, secret string, tags map[string]string) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.secret = secret
	globalData.initialised = true

	if "" == dsn {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        dsn,
		BeforeSend: scrubEvent,
	})
	if nil != err {
		return err
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	globalData.remote = true
	return nil
}

// Finalise - flush anything still queued for the remote tracker
func Finalise() {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.remote {
		sentry.Flush(flushTimeout)
	}
	globalData.remote = false
	globalData.secret = ""
	globalData.initialised = false
}

// Scrub - remove the secret from a string
func Scrub(s string) string {
	globalData.RLock()
	secret := globalData.secret
	globalData.RUnlock()

	if "" == secret {
		return s
	}
	return strings.ReplaceAll(s, secret, redacted)
}

// Warn - log a warning and leave a breadcrumb for any later error
func Warn(log *logger.L, message string) {
	message = Scrub(message)
	log.Warn(message)
	if isRemote() {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Level:   sentry.LevelWarning,
			Message: message,
		})
	}
}

// Error - log an error and send it to the remote tracker
func Error(log *logger.L, message string, err error) {
	text := describe(message, err)
	log.Error(text)
	capture(sentry.LevelError, text)
}

// Fatal - log a critical error, send it and wait for delivery
func Fatal(log *logger.L, message string, err error) {
	text := describe(message, err)
	log.Critical(text)
	capture(sentry.LevelFatal, text)
	if isRemote() {
		sentry.Flush(flushTimeout)
	}
}

// Recover - deferred at the top of a goroutine; a panic is reported
// and the process exits with FatalExitCode
func Recover(log *logger.L) {
	r := recover()
	if nil == r {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = errors.New(fmt.Sprint(r))
	}
	Fatal(log, "uncaught panic", fmt.Errorf("%w\n%s", err, debug.Stack()))
	log.Flush()
	exit(FatalExitCode)
}

func describe(message string, err error) string {
	if nil == err {
		return Scrub(message)
	}
	return Scrub(message + ": " + err.Error())
}

func capture(level sentry.Level, text string) {
	if !isRemote() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		sentry.CaptureMessage(text)
	})
}

func isRemote() bool {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.remote
}

// last chance to remove the secret from anything built outside this package
func scrubEvent(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	event.Message = Scrub(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = Scrub(event.Exception[i].Value)
	}
	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = Scrub(event.Breadcrumbs[i].Message)
	}
	return event
}
