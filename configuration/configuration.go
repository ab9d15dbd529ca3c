// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/fault"
)

// basic defaults (directories and files are relative to the "DataDirectory")
const (
	defaultDataDirectory = "."

	defaultDatabaseHost = "localhost"
	defaultDatabasePort = 5432
	defaultDatabaseUser = "backend"
	defaultDatabaseName = "blockchain"
	defaultSSLMode      = "disable"

	defaultKeyFile         = "ledgerd.key"
	defaultCertificateFile = "ledgerd.crt"

	defaultTimeout        = 60  // seconds
	defaultUpdateInterval = 3   // seconds
	defaultMaximumMemory  = 256 // MB
	defaultWorkers        = -1  // one less than the number of CPUs
	defaultRateLimit      = 100 // requests per second per connection
	defaultRateBurst      = 200

	defaultLogDirectory = "log"
	defaultLogFile      = "ledgerd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	minimumTimeout        = 5
	minimumUpdateInterval = 1
	minimumMaximumMemory  = 50
	maximumPort           = 65535
)

// DatabaseConfiguration - connection to the backing store
type DatabaseConfiguration struct {
	Host     string `gluamapper:"host" json:"host"`
	Port     int    `gluamapper:"port" json:"port"`
	User     string `gluamapper:"user" json:"user"`
	Password string `gluamapper:"password" json:"-"`
	Name     string `gluamapper:"name" json:"name"`
	SSLMode  string `gluamapper:"sslmode" json:"sslmode"`
}

// String - the password is masked so the configuration can be logged
func (d DatabaseConfiguration) String() string {
	password := ""
	if "" != d.Password {
		password = "********"
	}
	return fmt.Sprintf("{Host:%s Port:%d User:%s Password:%s Name:%s SSLMode:%s}", d.Host, d.Port, d.User, password, d.Name, d.SSLMode)
}

// TLSConfiguration - certificate shared by both listeners
type TLSConfiguration struct {
	Enabled     bool   `gluamapper:"enabled" json:"enabled"`
	Certificate string `gluamapper:"certificate" json:"certificate"`
	PrivateKey  string `gluamapper:"private_key" json:"private_key"`
}

// RESTConfiguration - plain request/response listener
type RESTConfiguration struct {
	Port int `gluamapper:"port" json:"port"`
}

// WebSocketConfiguration - persistent connection listener
type WebSocketConfiguration struct {
	Port      int     `gluamapper:"port" json:"port"`
	Timeout   int     `gluamapper:"timeout" json:"timeout"`
	RateLimit float64 `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst int     `gluamapper:"rate_burst" json:"rate_burst"`
}

// Configuration - all daemon settings
type Configuration struct {
	DataDirectory  string            `gluamapper:"data_directory" json:"data_directory"`
	PidFile        string            `gluamapper:"pidfile" json:"pidfile"`
	Workers        int               `gluamapper:"workers" json:"workers"`
	MaximumMemory  int               `gluamapper:"maximum_memory" json:"maximum_memory"`
	UpdateInterval int               `gluamapper:"update_interval" json:"update_interval"`
	Metrics        string            `gluamapper:"metrics" json:"metrics"`
	SentryURL      string            `gluamapper:"sentry_url" json:"-"`
	API            map[string]string `gluamapper:"api" json:"api"`

	Database  DatabaseConfiguration  `gluamapper:"database" json:"database"`
	TLS       TLSConfiguration       `gluamapper:"tls" json:"tls"`
	REST      RESTConfiguration      `gluamapper:"rest" json:"rest"`
	WebSocket WebSocketConfiguration `gluamapper:"websocket" json:"websocket"`
	Logging   logger.Configuration   `gluamapper:"logging" json:"logging"`
}

func defaults() *Configuration {
	return &Configuration{
		DataDirectory:  defaultDataDirectory,
		Workers:        defaultWorkers,
		MaximumMemory:  defaultMaximumMemory,
		UpdateInterval: defaultUpdateInterval,
		API:            map[string]string{},

		Database: DatabaseConfiguration{
			Host:    defaultDatabaseHost,
			Port:    defaultDatabasePort,
			User:    defaultDatabaseUser,
			Name:    defaultDatabaseName,
			SSLMode: defaultSSLMode,
		},

		TLS: TLSConfiguration{
			Enabled:     true,
			Certificate: defaultCertificateFile,
			PrivateKey:  defaultKeyFile,
		},

		WebSocket: WebSocketConfiguration{
			Timeout:   defaultTimeout,
			RateLimit: defaultRateLimit,
			RateBurst: defaultRateBurst,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels: map[string]string{
				logger.DefaultTag: "info",
			},
		},
	}
}

// Get - read, override, resolve and validate the configuration
//
// an empty file name skips the Lua file so a deployment can be
// configured entirely from the environment; known is the list of API
// constructor names that may appear in the API map
func Get(fileName string, lookup func(string) (string, bool), known []string) (*Configuration, error) {

	options := defaults()
	baseDirectory, err := os.Getwd()
	if nil != err {
		return nil, err
	}

	if "" != fileName {
		fileName, err = filepath.Abs(filepath.Clean(fileName))
		if nil != err {
			return nil, err
		}
		if err := ParseConfigurationFile(fileName, options); nil != err {
			return nil, err
		}
		baseDirectory = filepath.Dir(fileName)
	}

	if err := applyEnvironment(options, lookup); nil != err {
		return nil, err
	}

	if err := options.resolvePaths(baseDirectory); nil != err {
		return nil, err
	}

	if err := options.validate(known); nil != err {
		return nil, err
	}

	return options, nil
}

// make every file item absolute relative to the data directory
func (options *Configuration) resolvePaths(baseDirectory string) error {

	switch options.DataDirectory {
	case "", "~":
		return fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	case ".":
		options.DataDirectory = baseDirectory
	default:
		options.DataDirectory = ensureAbsolute(baseDirectory, options.DataDirectory)
	}

	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return err
	} else if !fileInfo.IsDir() {
		return fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	mustBeAbsolute := []*string{
		&options.TLS.Certificate,
		&options.TLS.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		if "" != *f {
			*f = ensureAbsolute(options.DataDirectory, *f)
		}
	}

	if "" != options.PidFile {
		options.PidFile = ensureAbsolute(options.DataDirectory, options.PidFile)
	}

	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return fmt.Errorf("files: %q is not plain name", options.Logging.File)
	}

	return os.MkdirAll(options.Logging.Directory, 0700)
}

func (options *Configuration) validate(known []string) error {

	if options.Database.Port < 1 || options.Database.Port > maximumPort {
		return fault.DatabasePortInvalid
	}

	for _, port := range []int{options.REST.Port, options.WebSocket.Port} {
		if port < 0 || port > maximumPort {
			return fault.InvalidPortNumber
		}
	}
	if 0 == options.REST.Port && 0 == options.WebSocket.Port {
		return fault.PortsRequired
	}
	if options.REST.Port == options.WebSocket.Port {
		return fault.PortsSame
	}

	if options.WebSocket.Timeout < minimumTimeout {
		return fault.TimeoutTooShort
	}
	if options.UpdateInterval < minimumUpdateInterval {
		return fault.UpdateIntervalTooShort
	}
	if options.MaximumMemory < minimumMaximumMemory {
		return fault.MaximumMemoryTooLow
	}

	if options.TLS.Enabled {
		if "" == options.TLS.Certificate || "" == options.TLS.PrivateKey {
			return fault.TLSPathsRequired
		}
		if !fileExists(options.TLS.Certificate) {
			return fault.CertificateFileNotFound
		}
		if !fileExists(options.TLS.PrivateKey) {
			return fault.KeyFileNotFound
		}
	}

	if 0 == len(options.API) {
		return fault.ApiRequired
	}
	names := make(map[string]struct{}, len(known))
	for _, name := range known {
		names[name] = struct{}{}
	}
	for _, version := range options.APIVersions() {
		if _, ok := names[options.API[version]]; !ok {
			return fmt.Errorf("api %q: %q: %w", version, options.API[version], fault.APINameUnknown)
		}
	}

	return nil
}

// APIVersions - configured version names in a stable order
func (options *Configuration) APIVersions() []string {
	versions := make([]string, 0, len(options.API))
	for version := range options.API {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}

// ensureAbsolute - if not absolute, prepend the directory
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}
