// Package storage is the content-addressed storage collaborator: documents
// are uploaded once, keyed by a permalink derived from their bytes, and
// assumed durable and immutable once written.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/webclient"
)

const permalinkScheme = "ar://"

var (
	ErrNotFound     = errors.New("permalink not found")
	ErrBadPermalink = errors.New("malformed permalink")
)

// Network is the read/write contract of the storage collaborator.
type Network interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Fetch(ctx context.Context, permalink string) ([]byte, error)
	// SnapshotOf returns the storage-chain block the permalink was anchored
	// in, once confirmed.
	SnapshotOf(ctx context.Context, permalink string) (chain.Snapshot, error)
}

// Permalink computes the content address of a byte string: the base58
// encoding of its sha256 multihash. A permalink is a pure function of the
// bytes, so any party can recompute and check it.
func Permalink(data []byte) string {
	digest := sha256.Sum256(data)
	multihash := append([]byte{0x12, 0x20}, digest[:]...)
	return permalinkScheme + base58.Encode(multihash)
}

// VerifyPermalink checks that data hashes to the given permalink.
func VerifyPermalink(permalink string, data []byte) error {
	if !strings.HasPrefix(permalink, permalinkScheme) {
		return fmt.Errorf("%w: %q", ErrBadPermalink, permalink)
	}
	if Permalink(data) != permalink {
		return fmt.Errorf("%w: content hash mismatch", ErrBadPermalink)
	}
	return nil
}

// Gateway talks to a storage-network gateway over HTTP.
type Gateway struct {
	baseURL string
	client  *http.Client
}

func NewGateway(baseURL string) *Gateway {
	if baseURL == "" {
		baseURL = "https://arweave.net"
	}
	return &Gateway{
		baseURL: baseURL,
		client:  webclient.NewDefault(60 * time.Second),
	}
}

func (g *Gateway) id(permalink string) (string, error) {
	if !strings.HasPrefix(permalink, permalinkScheme) {
		return "", fmt.Errorf("%w: %q", ErrBadPermalink, permalink)
	}
	return strings.TrimPrefix(permalink, permalinkScheme), nil
}

func (g *Gateway) Upload(ctx context.Context, data []byte) (string, error) {
	permalink := Permalink(data)
	id, _ := g.id(permalink)

	status, _, err := webclient.DoWithRetry(ctx, 3, 2*time.Second, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/tx/"+id, bytes.NewReader(data))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		resp, err := g.client.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload: %v", chain.ErrChainUnavailable, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("%w: upload status %d", chain.ErrChainUnavailable, status)
	}
	return permalink, nil
}

func (g *Gateway) Fetch(ctx context.Context, permalink string) ([]byte, error) {
	id, err := g.id(permalink)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/tx/"+id+"/data", nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", chain.ErrChainUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, permalink)
	default:
		return nil, fmt.Errorf("%w: fetch status %d", chain.ErrChainUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", chain.ErrChainUnavailable, err)
	}
	if err := VerifyPermalink(permalink, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (g *Gateway) SnapshotOf(ctx context.Context, permalink string) (chain.Snapshot, error) {
	id, err := g.id(permalink)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/tx/"+id+"/status", nil)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: status: %v", chain.ErrChainUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, permalink)
	default:
		return "", fmt.Errorf("%w: status %d", chain.ErrChainUnavailable, resp.StatusCode)
	}

	var status struct {
		BlockHeight           uint64 `json:"block_height"`
		NumberOfConfirmations uint64 `json:"number_of_confirmations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("%w: status: %v", chain.ErrChainUnavailable, err)
	}
	if status.BlockHeight == 0 {
		return "", fmt.Errorf("%w: %s not yet anchored", ErrNotFound, permalink)
	}
	return chain.Snapshot(fmt.Sprintf("%d", status.BlockHeight)), nil
}
