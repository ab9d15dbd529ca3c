// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package certificate - TLS key pair shared by the listeners, replaced
// in place when the certificate file changes
package certificate

import (
	"crypto/tls"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/logger"
)

// Load - read a PEM certificate and key pair from files
func Load(certificateFile string, keyFile string) (*tls.Certificate, [32]byte, error) {
	var fin [32]byte

	keyPair, err := tls.LoadX509KeyPair(certificateFile, keyFile)
	if nil != err {
		return nil, fin, err
	}

	fin = fingerprint(keyPair.Certificate[0])
	return &keyPair, fin, nil
}

// fingerprint - compute the fingerprint of a certificate
//
// openssl x509 -outform DER -in ledgerd.crt | sha3sum -a 256
func fingerprint(certificate []byte) [32]byte {
	return sha3.Sum256(certificate)
}

// Store - the currently active key pair
type Store struct {
	sync.RWMutex

	log             *logger.L
	certificateFile string
	keyFile         string
	current         *tls.Certificate
	fingerprint     [32]byte
}

// NewStore - load the initial pair; a failure here is fatal to the caller
func NewStore(certificateFile string, keyFile string) (*Store, error) {
	s := &Store{
		log:             logger.New("certificate"),
		certificateFile: certificateFile,
		keyFile:         keyFile,
	}
	if err := s.Reload(); nil != err {
		return nil, err
	}
	return s, nil
}

// Reload - replace the active pair from the files, keeping the old one
// if the new files cannot be loaded
func (s *Store) Reload() error {
	keyPair, fin, err := Load(s.certificateFile, s.keyFile)
	if nil != err {
		// the error text from crypto/tls never contains key material
		s.log.Errorf("failed to load certificate: %q  error: %s", s.certificateFile, err)
		return err
	}

	s.Lock()
	s.current = keyPair
	s.fingerprint = fin
	s.Unlock()

	s.log.Infof("certificate: %q  SHA3-256 fingerprint: %x", s.certificateFile, fin)
	return nil
}

// Fingerprint - SHA3-256 of the active DER certificate
func (s *Store) Fingerprint() [32]byte {
	s.RLock()
	defer s.RUnlock()
	return s.fingerprint
}

// CertificateFile - the watched file name
func (s *Store) CertificateFile() string {
	return s.certificateFile
}

// GetCertificate - for tls.Config, so each handshake sees the latest pair
func (s *Store) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	s.RLock()
	defer s.RUnlock()
	return s.current, nil
}

// TLSConfig - server configuration bound to this store
func (s *Store) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: s.GetCertificate,
		NextProtos:     []string{"http/1.1"},
		MinVersion:     tls.VersionTLS12,
	}
}
