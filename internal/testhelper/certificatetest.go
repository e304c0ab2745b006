// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testhelper implements utility routines required for writing unit
// tests. The testhelper should only be used in unit tests.
package testhelper

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"time"
)

var (
	rsaRoot   RSACertTuple
	rsaLeaf   RSACertTuple
	ecdsaRoot ECCertTuple
	ecdsaLeaf ECCertTuple
	tsaLeaf   RSACertTuple
)

var setupCertificatesOnce sync.Once

// RSACertTuple is a certificate with its RSA private key.
type RSACertTuple struct {
	Cert       *x509.Certificate
	PrivateKey *rsa.PrivateKey
}

// ECCertTuple is a certificate with its ECDSA private key.
type ECCertTuple struct {
	Cert       *x509.Certificate
	PrivateKey *ecdsa.PrivateKey
}

// GetRSARootCertificate returns root certificate signed using RSA algorithm
func GetRSARootCertificate() RSACertTuple {
	setupCertificates()
	return rsaRoot
}

// GetRSALeafCertificate returns leaf certificate signed using RSA algorithm
func GetRSALeafCertificate() RSACertTuple {
	setupCertificates()
	return rsaLeaf
}

// GetECRootCertificate returns root certificate signed using EC algorithm
func GetECRootCertificate() ECCertTuple {
	setupCertificates()
	return ecdsaRoot
}

// GetECLeafCertificate returns leaf certificate signed using EC algorithm
func GetECLeafCertificate() ECCertTuple {
	setupCertificates()
	return ecdsaLeaf
}

// GetTSACertificate returns a time stamping leaf certificate issued by the
// RSA root.
func GetTSACertificate() RSACertTuple {
	setupCertificates()
	return tsaLeaf
}

func setupCertificates() {
	setupCertificatesOnce.Do(func() {
		rsaRoot = getRSACertTuple(getCertTemplate(true, "Sigscope Test RSA Root", 1), nil)
		rsaLeaf = getRSACertTuple(getCertTemplate(false, "Sigscope Test RSA Leaf Cert", 2), &rsaRoot)
		ecdsaRoot = getECCertTuple(getCertTemplate(true, "Sigscope Test EC Root", 1), nil)
		ecdsaLeaf = getECCertTuple(getCertTemplate(false, "Sigscope Test EC Leaf Cert", 2), &ecdsaRoot)

		template := getCertTemplate(false, "Sigscope Test TSA", 3)
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping}
		tsaLeaf = getRSACertTuple(template, &rsaRoot)
	})
}

func getRSACertTuple(template *x509.Certificate, issuer *RSACertTuple) RSACertTuple {
	privKey, _ := rsa.GenerateKey(rand.Reader, 2048)
	template.SubjectKeyId = subjectKeyID(&privKey.PublicKey)

	var certBytes []byte
	if issuer != nil {
		certBytes, _ = x509.CreateCertificate(rand.Reader, template, issuer.Cert, &privKey.PublicKey, issuer.PrivateKey)
	} else {
		certBytes, _ = x509.CreateCertificate(rand.Reader, template, template, &privKey.PublicKey, privKey)
	}

	cert, _ := x509.ParseCertificate(certBytes)
	return RSACertTuple{
		Cert:       cert,
		PrivateKey: privKey,
	}
}

func getECCertTuple(template *x509.Certificate, issuer *ECCertTuple) ECCertTuple {
	privKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	template.SubjectKeyId = subjectKeyID(&privKey.PublicKey)

	var certBytes []byte
	if issuer != nil {
		certBytes, _ = x509.CreateCertificate(rand.Reader, template, issuer.Cert, &privKey.PublicKey, issuer.PrivateKey)
	} else {
		certBytes, _ = x509.CreateCertificate(rand.Reader, template, template, &privKey.PublicKey, privKey)
	}

	cert, _ := x509.ParseCertificate(certBytes)
	return ECCertTuple{
		Cert:       cert,
		PrivateKey: privKey,
	}
}

func subjectKeyID(pub any) []byte {
	der, _ := x509.MarshalPKIXPublicKey(pub)
	sum := sha1.Sum(der)
	return sum[:]
}

func getCertTemplate(isRoot bool, cn string, serial int64) *x509.Certificate {
	template := &x509.Certificate{
		Subject: pkix.Name{
			Organization: []string{"Notary"},
			Country:      []string{"US"},
			Province:     []string{"WA"},
			Locality:     []string{"Seattle"},
			CommonName:   cn,
		},
		SerialNumber: big.NewInt(serial),
		NotBefore:    time.Now().Add(-time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
	}

	if isRoot {
		template.NotAfter = time.Now().AddDate(0, 1, 0)
		template.KeyUsage = x509.KeyUsageCertSign
		template.ExtKeyUsage = nil
		template.BasicConstraintsValid = true
		template.MaxPathLen = 1
		template.IsCA = true
	} else {
		template.NotAfter = time.Now().AddDate(0, 0, 1)
	}

	return template
}
