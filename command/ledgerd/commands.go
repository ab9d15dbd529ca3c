// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/exitwithstatus"

	"github.com/bitmark-inc/ledgerd/api"
	"github.com/bitmark-inc/ledgerd/fault"
)

const (
	certificateFilename = "ledgerd.crt"
	privateKeyFilename  = "ledgerd.key"

	certificateValidity = 10 * 365 * 24 * time.Hour
)

// setup command handler
//
// commands that run to create key and certificate files these
// commands cannot access the database or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-certificate", "certificate":
		certificateFile := getFilenameWithDirectory(arguments, certificateFilename)
		keyFile := getFilenameWithDirectory(arguments, privateKeyFilename)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := makeSelfSignedCertificate(certificateFile, keyFile, addresses)
		if nil != err {
			fmt.Printf("generate key: %q and certificate: %q error: %s\n", keyFile, certificateFile, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated key: %q and certificate: %q\n", keyFile, certificateFile)

	case "start", "run":
		return false // continue processing

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                           (h)      - display this message\n\n")
		fmt.Printf("  version                        (v)      - display version string\n\n")
		fmt.Printf("  gen-certificate [DIR [HOST…]]           - create a self-signed TLS certificate and key\n")
		fmt.Printf("                                            %q and %q in DIR\n\n", certificateFilename, privateKeyFilename)
		fmt.Printf("  start                          (run)    - run the supervisor and its workers\n")
		fmt.Printf("                                            api names: %v\n\n", api.Names())
		fmt.Printf("options:\n\n")
		fmt.Printf("  --config-file=FILE             (-c)     - Lua configuration file, environment LEDGERD_* overrides it\n")
		fmt.Printf("  --verbose                      (-v)     - print the supervisor pid and api versions at start\n")
		fmt.Printf("\n")
		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// the first argument, when present, is the target directory
func getFilenameWithDirectory(arguments []string, name string) string {
	directory := "."
	if len(arguments) >= 1 && "" != arguments[0] {
		directory = arguments[0]
	}
	return filepath.Join(directory, name)
}

// create a self-signed certificate
func makeSelfSignedCertificate(certificateFile string, keyFile string, extraHosts []string) error {

	if fileExists(certificateFile) {
		return fault.CertificateFileExists
	}
	if fileExists(keyFile) {
		return fault.KeyFileExists
	}

	cert, key, err := certgen.NewTLSCertPair("ledgerd", time.Now().Add(certificateValidity), 0 != len(extraHosts), extraHosts)
	if nil != err {
		return err
	}

	if err = os.WriteFile(certificateFile, cert, 0644); nil != err {
		return err
	}

	if err = os.WriteFile(keyFile, key, 0600); nil != err {
		_ = os.Remove(certificateFile)
		return err
	}

	return nil
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}
