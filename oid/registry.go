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

package oid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Role is the semantic role of an object identifier within a signature
// container.
type Role int

// Roles known to the registry. RoleUnknown is a valid result of a lookup and
// means the identifier is not recognized.
const (
	RoleUnknown Role = iota
	RoleContentType
	RoleMessageDigest
	RoleSigningTime
	RoleCounterSignature
	RoleSignatureTimeStampToken
	RoleSigningCertificate
	RoleSigningCertificateV2
	RoleAlgorithmProtection
	RoleRevocationInfoArchival
	RoleDigestAlgorithm
	RoleSignatureAlgorithm
	RoleContentData
	RoleContentSignedData
	RoleContentTSTInfo
)

var roleNames = map[Role]string{
	RoleUnknown:                 "unknown",
	RoleContentType:             "content-type",
	RoleMessageDigest:           "message-digest",
	RoleSigningTime:             "signing-time",
	RoleCounterSignature:        "counter-signature",
	RoleSignatureTimeStampToken: "signature-timestamp-token",
	RoleSigningCertificate:      "signing-certificate",
	RoleSigningCertificateV2:    "signing-certificate-v2",
	RoleAlgorithmProtection:     "algorithm-protection",
	RoleRevocationInfoArchival:  "revocation-info-archival",
	RoleDigestAlgorithm:         "digest-algorithm",
	RoleSignatureAlgorithm:      "signature-algorithm",
	RoleContentData:             "content-data",
	RoleContentSignedData:       "content-signed-data",
	RoleContentTSTInfo:          "content-tst-info",
}

// String returns the kebab-case name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler so that roles render by name
// in JSON and YAML reports.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ParseRole parses the kebab-case name of a role.
func ParseRole(name string) (Role, error) {
	for role, roleName := range roleNames {
		if roleName == name {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown OID role %q", name)
}

// Entry describes one registered object identifier.
type Entry struct {
	// OID is the identifier in dotted notation.
	OID string `json:"oid" yaml:"oid"`

	// Name is a human readable name of the identifier.
	Name string `json:"name" yaml:"name"`

	// Role is the semantic role of the identifier.
	Role Role `json:"role" yaml:"role"`
}

var builtinEntries = []Entry{
	// digest algorithms
	{SHA1.String(), "SHA-1", RoleDigestAlgorithm},
	{SHA224.String(), "SHA-224", RoleDigestAlgorithm},
	{SHA256.String(), "SHA-256", RoleDigestAlgorithm},
	{SHA384.String(), "SHA-384", RoleDigestAlgorithm},
	{SHA512.String(), "SHA-512", RoleDigestAlgorithm},
	{"2.16.840.1.101.3.4.2.8", "SHA3-256", RoleDigestAlgorithm},
	{"2.16.840.1.101.3.4.2.9", "SHA3-384", RoleDigestAlgorithm},
	{"2.16.840.1.101.3.4.2.10", "SHA3-512", RoleDigestAlgorithm},
	{"1.2.840.113549.2.5", "MD5", RoleDigestAlgorithm},
	{"1.2.156.10197.1.401", "SM3", RoleDigestAlgorithm},

	// signature algorithms
	{RSA.String(), "RSA", RoleSignatureAlgorithm},
	{SHA1WithRSA.String(), "SHA1-RSA", RoleSignatureAlgorithm},
	{RSAPSS.String(), "RSASSA-PSS", RoleSignatureAlgorithm},
	{SHA256WithRSA.String(), "SHA256-RSA", RoleSignatureAlgorithm},
	{SHA384WithRSA.String(), "SHA384-RSA", RoleSignatureAlgorithm},
	{SHA512WithRSA.String(), "SHA512-RSA", RoleSignatureAlgorithm},
	{"1.2.840.10045.2.1", "EC public key", RoleSignatureAlgorithm},
	{ECDSAWithSHA256.String(), "ECDSA-SHA256", RoleSignatureAlgorithm},
	{ECDSAWithSHA384.String(), "ECDSA-SHA384", RoleSignatureAlgorithm},
	{ECDSAWithSHA512.String(), "ECDSA-SHA512", RoleSignatureAlgorithm},
	{Ed25519.String(), "Ed25519", RoleSignatureAlgorithm},
	{"1.2.156.10197.1.501", "SM2-SM3", RoleSignatureAlgorithm},

	// content types
	{Data.String(), "id-data", RoleContentData},
	{SignedData.String(), "id-signedData", RoleContentSignedData},
	{TSTInfo.String(), "id-ct-TSTInfo", RoleContentTSTInfo},

	// attributes
	{ContentType.String(), "content-type", RoleContentType},
	{MessageDigest.String(), "message-digest", RoleMessageDigest},
	{SigningTime.String(), "signing-time", RoleSigningTime},
	{CounterSignature.String(), "countersignature", RoleCounterSignature},
	{CMSAlgorithmProtection.String(), "cms-algorithm-protection", RoleAlgorithmProtection},
	{SignatureTimeStampToken.String(), "signature-time-stamp-token", RoleSignatureTimeStampToken},
	{SigningCertificate.String(), "signing-certificate", RoleSigningCertificate},
	{SigningCertificateV2.String(), "signing-certificate-v2", RoleSigningCertificateV2},
	{AdobeRevocationInfoArchival.String(), "adbe-revocation-info-archival", RoleRevocationInfoArchival},
}

// Registry maps object identifiers to roles and names. A Registry is
// read-only after construction and safe for concurrent use.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates a registry holding the built-in identifiers and the
// given extra entries. An extra entry with a built-in OID renames it and
// keeps the built-in role; giving it a different role is an error.
func NewRegistry(extra ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Entry, len(builtinEntries)+len(extra)),
	}
	for _, e := range builtinEntries {
		r.entries[e.OID] = e
	}
	for _, e := range extra {
		if !IsDotted(e.OID) {
			return nil, fmt.Errorf("invalid OID %q", e.OID)
		}
		if e.Name == "" {
			e.Name = e.OID
		}
		if builtin, ok := r.entries[e.OID]; ok && builtin.Role != RoleUnknown {
			if e.Role == RoleUnknown {
				e.Role = builtin.Role
			} else if e.Role != builtin.Role {
				return nil, fmt.Errorf("OID %s has built-in role %s, cannot change it to %s", e.OID, builtin.Role, e.Role)
			}
		}
		r.entries[e.OID] = e
	}
	return r, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the shared registry of built-in identifiers.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, _ = NewRegistry()
	})
	return defaultRegistry
}

// Lookup returns the entry registered for the dotted OID.
func (r *Registry) Lookup(oid string) (Entry, bool) {
	if r == nil {
		r = Default()
	}
	e, ok := r.entries[oid]
	return e, ok
}

// RoleOf returns the role of the dotted OID, or RoleUnknown.
func (r *Registry) RoleOf(oid string) Role {
	e, ok := r.Lookup(oid)
	if !ok {
		return RoleUnknown
	}
	return e.Role
}

// Name returns the registered name of the dotted OID. Unregistered
// identifiers are returned unchanged.
func (r *Registry) Name(oid string) string {
	e, ok := r.Lookup(oid)
	if !ok {
		return oid
	}
	return e.Name
}

// Entries returns all registered entries ordered by OID arc.
func (r *Registry) Entries() []Entry {
	if r == nil {
		r = Default()
	}
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return lessDotted(entries[i].OID, entries[j].OID)
	})
	return entries
}

// IsDotted reports whether s is an object identifier in dotted notation with
// at least two arcs.
func IsDotted(s string) bool {
	arcs := strings.Split(s, ".")
	if len(arcs) < 2 {
		return false
	}
	for _, arc := range arcs {
		if arc == "" {
			return false
		}
		if _, err := strconv.ParseUint(arc, 10, 64); err != nil {
			return false
		}
	}
	return true
}

func lessDotted(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, _ := strconv.ParseUint(as[i], 10, 64)
		y, _ := strconv.ParseUint(bs[i], 10, 64)
		if x != y {
			return x < y
		}
	}
	return len(as) < len(bs)
}
