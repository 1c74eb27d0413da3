package authorship

import (
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/renzholy/voty/src/schema"
)

// Signer holds the platform's own signing credential for documents the
// platform issues on its own behalf. Loaded once at startup from
// configuration and passed by reference; never re-read from the
// environment.
type Signer struct {
	key *ecdsa.PrivateKey
}

func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	return &Signer{key: key}, nil
}

func (s *Signer) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

// Sign produces the base64 EIP-191 personal signature over the message
// binding a document type to its proof.
func (s *Signer) Sign(documentType string, proof schema.Proof) (string, error) {
	return s.SignMessage(schema.SignedMessage(documentType, proof))
}

// SignMessage signs arbitrary bytes as an EIP-191 personal message.
func (s *Signer) SignMessage(message []byte) (string, error) {
	signature, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return "", err
	}
	signature[64] += 27
	return base64.StdEncoding.EncodeToString(signature), nil
}
