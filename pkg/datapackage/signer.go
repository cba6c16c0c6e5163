package datapackage

import (
	"context"
	"encoding/base64"
	"errors"
)

// ErrSignatureInvalid is returned by Validate when a SignedData value
// violates the tagged-union shape required by the WACZ signature format.
var ErrSignatureInvalid = errors.New("signature invalid")

// Signer is the external collaborator that attests to a datapackage hash.
// The canonical implementation POSTs to an authsign-style HTTP endpoint
// (see pkg/signer/httpsign); the core never assumes HTTP.
type Signer interface {
	Sign(ctx context.Context, hash, created string) (SignedData, error)
}

// SignedData is the tagged union returned by a Signer: the fields shared
// across all three variants sit at the top, and exactly one of the
// anonymous/domain-identified variants must be populated.
type SignedData struct {
	Hash      string `json:"hash"`
	Created   string `json:"created"`
	Software  string `json:"software"`
	Signature string `json:"signature"`

	// Anonymous variant.
	PublicKey string `json:"publicKey,omitempty"`

	// Domain-identified variant.
	Domain         string `json:"domain,omitempty"`
	DomainCert     string `json:"domainCert,omitempty"`
	TimeSignature  string `json:"timeSignature,omitempty"`
	TimestampCert  string `json:"timestampCert,omitempty"`
	CrossSignedCert string `json:"crossSignedCert,omitempty"`
}

// Validate enforces the WACZ signature shape: the shared fields must be
// present, and either the anonymous or the domain-identified variant must
// be fully populated (never neither, never a partial mix).
func (s SignedData) Validate() error {
	if s.Hash == "" || s.Created == "" || s.Software == "" || s.Signature == "" {
		return ErrSignatureInvalid
	}

	if !isBase64(s.Signature) {
		return ErrSignatureInvalid
	}

	anonymous := s.PublicKey != ""
	domainIdentified := s.Domain != "" || s.DomainCert != "" || s.TimeSignature != "" || s.TimestampCert != ""

	switch {
	case anonymous && domainIdentified:
		return ErrSignatureInvalid
	case anonymous:
		if !isBase64(s.PublicKey) {
			return ErrSignatureInvalid
		}
	case domainIdentified:
		if s.Domain == "" || s.DomainCert == "" || s.TimeSignature == "" || s.TimestampCert == "" {
			return ErrSignatureInvalid
		}

		if !isBase64(s.TimeSignature) {
			return ErrSignatureInvalid
		}
	default:
		return ErrSignatureInvalid
	}

	return nil
}

func isBase64(s string) bool {
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
