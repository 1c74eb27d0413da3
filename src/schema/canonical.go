// Package schema defines the governance documents, their canonical byte
// form, and the authorship envelope every mutating document carries.
package schema

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
)

const proofVersion = "1"

var (
	ErrMalformedProof = errors.New("malformed proof")
	ErrProofMismatch  = errors.New("proof mismatch")
)

// Proof is the document's declared content hash, "<version>:<base64 sha256
// of the canonical bytes>".
type Proof string

func (p Proof) Version() string {
	version, _, _ := strings.Cut(string(p), ":")
	return version
}

// CanonicalBytes returns the RFC 8785 canonical JSON form of a document with
// the proof and signature stripped: the bytes that are hashed and signed.
// Two semantically equal documents always canonicalize identically.
func CanonicalBytes(document interface{}) ([]byte, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: marshal: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("canonicalize: document is not an object: %w", err)
	}
	if rawAuthorship, ok := fields["authorship"]; ok {
		var authorship map[string]json.RawMessage
		if err := json.Unmarshal(rawAuthorship, &authorship); err != nil {
			return nil, fmt.Errorf("canonicalize: authorship is not an object: %w", err)
		}
		delete(authorship, "proof")
		delete(authorship, "signature")
		stripped, err := json.Marshal(authorship)
		if err != nil {
			return nil, err
		}
		fields["authorship"] = stripped
	}

	stripped, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(stripped)
}

// ComputeProof derives the content hash of a document's canonical bytes.
func ComputeProof(document interface{}) (Proof, error) {
	canonical, err := CanonicalBytes(document)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(canonical)
	return Proof(proofVersion + ":" + base64.RawStdEncoding.EncodeToString(digest[:])), nil
}

// VerifyProof recomputes the canonical hash and compares it with the
// document's declared proof.
func VerifyProof(document interface{}, declared Proof) error {
	if declared.Version() != proofVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedProof, declared.Version())
	}
	computed, err := ComputeProof(document)
	if err != nil {
		return err
	}
	if computed != declared {
		return ErrProofMismatch
	}
	return nil
}

// SignedMessage is the byte string wallets sign: a human-readable statement
// binding the document kind to its content hash.
func SignedMessage(documentType string, proof Proof) []byte {
	return []byte(fmt.Sprintf("voty governance: signing %s with proof %s", documentType, proof))
}
