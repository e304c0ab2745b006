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

package render

import (
	"crypto/x509"
	"fmt"
	"time"
)

type certificateView struct {
	Subject      string    `json:"subject" yaml:"subject"`
	Issuer       string    `json:"issuer" yaml:"issuer"`
	SerialNumber string    `json:"serial_number" yaml:"serial_number"`
	NotBefore    time.Time `json:"not_before" yaml:"not_before"`
	NotAfter     time.Time `json:"not_after" yaml:"not_after"`
	IsCA         bool      `json:"is_ca,omitempty" yaml:"is_ca,omitempty"`
	ExtKeyUsage  []string  `json:"ext_key_usage,omitempty" yaml:"ext_key_usage,omitempty,flow"`
}

func certificates(certs []*x509.Certificate) []certificateView {
	views := make([]certificateView, 0, len(certs))
	for _, cert := range certs {
		views = append(views, certificate(cert))
	}
	return views
}

// certificate describes cert as claimed by its fields. Nothing is checked
// against a trust anchor.
func certificate(cert *x509.Certificate) certificateView {
	cv := certificateView{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		NotBefore: cert.NotBefore.UTC(),
		NotAfter:  cert.NotAfter.UTC(),
		IsCA:      cert.BasicConstraintsValid && cert.IsCA,
	}
	if cert.SerialNumber != nil {
		cv.SerialNumber = cert.SerialNumber.String()
	}
	for _, eku := range cert.ExtKeyUsage {
		cv.ExtKeyUsage = append(cv.ExtKeyUsage, ekuToString(eku))
	}
	for _, unknown := range cert.UnknownExtKeyUsage {
		cv.ExtKeyUsage = append(cv.ExtKeyUsage, unknown.String())
	}
	return cv
}

func ekuToString(eku x509.ExtKeyUsage) string {
	switch eku {
	case x509.ExtKeyUsageAny:
		return "Any"
	case x509.ExtKeyUsageServerAuth:
		return "ServerAuth"
	case x509.ExtKeyUsageClientAuth:
		return "ClientAuth"
	case x509.ExtKeyUsageOCSPSigning:
		return "OCSPSigning"
	case x509.ExtKeyUsageEmailProtection:
		return "EmailProtection"
	case x509.ExtKeyUsageCodeSigning:
		return "CodeSigning"
	case x509.ExtKeyUsageTimeStamping:
		return "Timestamping"
	default:
		return fmt.Sprintf("%d", int(eku))
	}
}
