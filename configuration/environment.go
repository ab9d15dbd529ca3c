// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/joho/godotenv"

	"github.com/bitmark-inc/ledgerd/fault"
)

// EnvironmentPrefix - prefix of every override variable
const EnvironmentPrefix = "LEDGERD_"

// index is the LEDGERD_LOGLEVEL value
var logLevels = []string{"debug", "info", "warn", "error", "critical", "critical"}

// LoadDotEnv - add variables from a .env file to the process
// environment; existing variables are not replaced and a missing
// file is not an error
func LoadDotEnv(fileName string) error {
	err := godotenv.Load(fileName)
	if nil != err && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// apply LEDGERD_* overrides on top of the file settings
func applyEnvironment(options *Configuration, lookup func(string) (string, bool)) error {
	if nil == lookup {
		return nil
	}

	text := map[string]*string{
		"DBUSER":     &options.Database.User,
		"DBNAME":     &options.Database.Name,
		"DBHOST":     &options.Database.Host,
		"DBPASSWORD": &options.Database.Password,
		"SENTRYURL":  &options.SentryURL,
		"KEYPATH":    &options.TLS.PrivateKey,
		"CERTPATH":   &options.TLS.Certificate,
		"METRICS":    &options.Metrics,
		"PIDFILE":    &options.PidFile,
		"DATADIR":    &options.DataDirectory,
	}
	for name, p := range text {
		if value, ok := lookup(EnvironmentPrefix + name); ok {
			*p = value
		}
	}

	integers := map[string]*int{
		"DBPORT":         &options.Database.Port,
		"RESTPORT":       &options.REST.Port,
		"WSPORT":         &options.WebSocket.Port,
		"TIMEOUT":        &options.WebSocket.Timeout,
		"UPDATEINTERVAL": &options.UpdateInterval,
		"MAXMEMORY":      &options.MaximumMemory,
		"WORKERS":        &options.Workers,
	}
	for name, p := range integers {
		value, ok := lookup(EnvironmentPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if nil != err {
			return fmt.Errorf("%s%s: invalid number: %q", EnvironmentPrefix, name, value)
		}
		*p = n
	}

	if value, ok := lookup(EnvironmentPrefix + "TLS"); ok {
		enabled, err := strconv.ParseBool(value)
		if nil != err {
			return fmt.Errorf("%sTLS: invalid boolean: %q", EnvironmentPrefix, value)
		}
		options.TLS.Enabled = enabled
	}

	if value, ok := lookup(EnvironmentPrefix + "LOGLEVEL"); ok {
		n, err := strconv.Atoi(value)
		if nil != err || n < 0 || n >= len(logLevels) {
			return fault.InvalidLogLevel
		}
		if nil == options.Logging.Levels {
			options.Logging.Levels = map[string]string{}
		}
		options.Logging.Levels[logger.DefaultTag] = logLevels[n]
	}

	if value, ok := lookup(EnvironmentPrefix + "API"); ok {
		api, err := parseAPI(value)
		if nil != err {
			return err
		}
		options.API = api
	}

	return nil
}

// "v1=basic,v2=push"
func parseAPI(s string) (map[string]string, error) {
	api := map[string]string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if "" == item {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if 2 != len(parts) || "" == strings.TrimSpace(parts[0]) || "" == strings.TrimSpace(parts[1]) {
			return nil, fmt.Errorf("%sAPI: invalid item: %q", EnvironmentPrefix, item)
		}
		api[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return api, nil
}
