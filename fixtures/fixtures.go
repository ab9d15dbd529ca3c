// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared setup for package tests
package fixtures

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// SetupTestLogger - log to a local directory, critical messages only
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove the directory
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}

// FreePort - ask the kernel for an unused local TCP port
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if nil != err {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// WriteCertificate - create a self signed pair in directory
func WriteCertificate(directory string, organisation string) (certificateFile string, keyFile string, err error) {
	cert, key, err := certgen.NewTLSCertPair(organisation, time.Now().Add(24*time.Hour), false, []string{"localhost", "127.0.0.1"})
	if nil != err {
		return "", "", err
	}
	certificateFile = filepath.Join(directory, "test.crt")
	keyFile = filepath.Join(directory, "test.key")
	if err := os.WriteFile(certificateFile, cert, 0600); nil != err {
		return "", "", err
	}
	if err := os.WriteFile(keyFile, key, 0600); nil != err {
		return "", "", err
	}
	return certificateFile, keyFile, nil
}
