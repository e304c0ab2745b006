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

package timestamp

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"net"
)

// GeneralName tags
//
// Reference: RFC 5280 4.2.1.6 Subject Alternative Name
const (
	tagOtherName     = 0
	tagRFC822Name    = 1
	tagDNSName       = 2
	tagDirectoryName = 4
	tagURI           = 6
	tagIPAddress     = 7
	tagRegisteredID  = 8
)

// GeneralName is a decoded GeneralName CHOICE.
//
//	GeneralName ::= CHOICE {
//	 otherName                       [0]     OtherName,
//	 rfc822Name                      [1]     IA5String,
//	 dNSName                         [2]     IA5String,
//	 x400Address                     [3]     ORAddress,
//	 directoryName                   [4]     Name,
//	 ediPartyName                    [5]     EDIPartyName,
//	 uniformResourceIdentifier       [6]     IA5String,
//	 iPAddress                       [7]     OCTET STRING,
//	 registeredID                    [8]     OBJECT IDENTIFIER }
type GeneralName struct {
	// Tag is the context-specific tag of the chosen alternative.
	Tag int

	// DirectoryName is set for the directoryName alternative.
	DirectoryName *pkix.Name

	// Value is the textual value of the rfc822Name, dNSName, URI, iPAddress
	// and registeredID alternatives, and the hex encoding of the others.
	Value string

	// Raw is the encoded GeneralName.
	Raw []byte
}

// String returns the RFC 4514 form of a directory name, or Value for the
// other alternatives.
func (n *GeneralName) String() string {
	if n.DirectoryName != nil {
		return n.DirectoryName.String()
	}
	return n.Value
}

func parseGeneralName(der []byte) (*GeneralName, error) {
	var raw asn1.RawValue
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.New("trailing data after general name")
	}
	if raw.Class != asn1.ClassContextSpecific {
		return nil, errors.New("general name is not context-specific")
	}

	name := &GeneralName{
		Tag: raw.Tag,
		Raw: raw.FullBytes,
	}
	switch raw.Tag {
	case tagRFC822Name, tagDNSName, tagURI:
		name.Value = string(raw.Bytes)
	case tagDirectoryName:
		// [4] EXPLICIT, as Name is a CHOICE
		var rdn pkix.RDNSequence
		rest, err := asn1.Unmarshal(raw.Bytes, &rdn)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			return nil, errors.New("trailing data after directory name")
		}
		var dn pkix.Name
		dn.FillFromRDNSequence(&rdn)
		name.DirectoryName = &dn
	case tagIPAddress:
		if len(raw.Bytes) != net.IPv4len && len(raw.Bytes) != net.IPv6len {
			return nil, errors.New("invalid IP address length")
		}
		name.Value = net.IP(raw.Bytes).String()
	case tagRegisteredID:
		var id asn1.ObjectIdentifier
		if _, err := asn1.UnmarshalWithParams(raw.FullBytes, &id, "tag:8"); err != nil {
			return nil, err
		}
		name.Value = id.String()
	default:
		name.Value = hex.EncodeToString(raw.Bytes)
	}
	return name, nil
}
