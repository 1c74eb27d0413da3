package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/renzholy/voty/src/webclient"
)

// Arweave resolves snapshots on the permanent storage network through a
// gateway. A snapshot here is a block height; it anchors uploaded documents
// in wall-clock time.
type Arweave struct {
	baseURL string
	client  *http.Client
}

func NewArweave(baseURL string) *Arweave {
	if baseURL == "" {
		baseURL = "https://arweave.net"
	}
	return &Arweave{
		baseURL: baseURL,
		client:  webclient.NewDefault(30 * time.Second),
	}
}

func (a *Arweave) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	var info struct {
		Height uint64 `json:"height"`
	}
	if err := a.get(ctx, "/info", &info); err != nil {
		return "", err
	}
	return Snapshot(fmt.Sprintf("%d", info.Height)), nil
}

func (a *Arweave) SnapshotTimestamp(ctx context.Context, snapshot Snapshot) (time.Time, error) {
	height, err := snapshot.Uint64()
	if err != nil {
		return time.Time{}, err
	}
	var block struct {
		Timestamp int64 `json:"timestamp"`
	}
	if err := a.get(ctx, fmt.Sprintf("/block/height/%d", height), &block); err != nil {
		return time.Time{}, err
	}
	return time.Unix(block.Timestamp, 0).UTC(), nil
}

func (a *Arweave) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway status %d for %s", ErrChainUnavailable, resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
