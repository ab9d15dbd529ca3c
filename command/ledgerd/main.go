// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/api"
	"github.com/bitmark-inc/ledgerd/configuration"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/supervisor"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if len(options["config-file"]) > 1 {
		exitwithstatus.Message("%s: at most one config-file option is allowed, %d were detected", program, len(options["config-file"]))
	}

	// the configuration file is optional, the environment can supply everything
	configurationFile := ""
	if 1 == len(options["config-file"]) {
		configurationFile = options["config-file"][0]
	}

	if err := configuration.LoadDotEnv(".env"); nil != err {
		exitwithstatus.Message("%s: failed to read .env  error: %s", program, err)
	}

	theConfiguration, err := configuration.Get(configurationFile, os.LookupEnv, api.Names())
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	workerID := 0
	if s, ok := os.LookupEnv(supervisor.WorkerIDVariable); ok {
		workerID, err = strconv.Atoi(s)
		if nil != err || workerID <= 0 {
			exitwithstatus.Message("%s: invalid %s: %q", program, supervisor.WorkerIDVariable, s)
		}
		// each worker rotates its own log file
		theConfiguration.Logging.File = fmt.Sprintf("%s.worker-%d", theConfiguration.Logging.File, workerID)
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	role := "supervisor"
	if 0 != workerID {
		role = "worker"
	}
	err = report.Initialise(theConfiguration.SentryURL, theConfiguration.Database.Password, map[string]string{
		"role":    role,
		"version": version,
	})
	if nil != err {
		exitwithstatus.Message("%s: error reporting setup failed with error: %s", program, err)
	}
	defer report.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Infof("starting %s…", role)
	log.Infof("version: %s", version)
	log.Debug(report.Scrub(fmt.Sprintf("theConfiguration: %v", theConfiguration)))

	if 0 != workerID {
		exitwithstatus.Exit(runWorker(log, workerID, theConfiguration))
	}

	if len(options["verbose"]) > 0 {
		fmt.Printf("%s: supervisor pid: %d  api: %v\n", program, os.Getpid(), theConfiguration.APIVersions())
	}

	exitwithstatus.Exit(runSupervisor(program, log, theConfiguration))
}
