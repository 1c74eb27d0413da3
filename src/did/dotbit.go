package did

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/webclient"
)

// Dotbit resolves ".bit" names through a dotbit indexer. Ownership records
// live on CKB; the indexer reads them at the pinned CKB block so resolution
// stays reproducible.
type Dotbit struct {
	baseURL string
	client  *http.Client
}

func NewDotbit(baseURL string) *Dotbit {
	if baseURL == "" {
		baseURL = "https://indexer-v1.did.id"
	}
	return &Dotbit{
		baseURL: baseURL,
		client:  webclient.NewDefault(30 * time.Second),
	}
}

func (d *Dotbit) CoinType() uint32 { return chain.CoinTypeCKB }

type dotbitAccountRequest struct {
	Account     string `json:"account"`
	BlockNumber uint64 `json:"block_number,omitempty"`
}

type dotbitAccountResponse struct {
	ErrNo  int    `json:"err_no"`
	ErrMsg string `json:"err_msg"`
	Data   struct {
		AccountInfo struct {
			OwnerKey      string `json:"owner_key"`
			OwnerCoinType string `json:"owner_coin_type"`
		} `json:"account_info"`
	} `json:"data"`
}

func (d *Dotbit) Resolve(ctx context.Context, id DID, snapshots chain.SnapshotSet) (Account, error) {
	// The CKB pin is optional: rule evaluation always supplies one, while
	// authorship envelopes pin only the author's own chain and resolve the
	// indexer's current state.
	var block uint64
	if snapshot, err := snapshots.Get(chain.CoinTypeCKB); err == nil {
		block, err = snapshot.Uint64()
		if err != nil {
			return Account{}, err
		}
	}

	body, err := json.Marshal(dotbitAccountRequest{Account: string(id), BlockNumber: block})
	if err != nil {
		return Account{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v1/account/info", bytes.NewBuffer(body))
	if err != nil {
		return Account{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("%w: dotbit indexer: %v", chain.ErrChainUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Account{}, fmt.Errorf("%w: dotbit indexer status %d", chain.ErrChainUnavailable, resp.StatusCode)
	}

	var out dotbitAccountResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Account{}, fmt.Errorf("%w: dotbit indexer: %v", chain.ErrChainUnavailable, err)
	}
	if out.ErrNo != 0 {
		return Account{}, fmt.Errorf("%w: %s (%d)", ErrDidNotFound, out.ErrMsg, out.ErrNo)
	}
	owner := out.Data.AccountInfo.OwnerKey
	if owner == "" {
		return Account{}, fmt.Errorf("%w: %s", ErrDidNotFound, id)
	}

	// The indexer reports which chain the owner key lives on; most .bit
	// names are held by EVM addresses, which is also the default when the
	// field is absent.
	coinType := chain.CoinTypeEthereum
	if raw := out.Data.AccountInfo.OwnerCoinType; raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return Account{}, fmt.Errorf("%w: dotbit indexer owner coin type %q", chain.ErrChainUnavailable, raw)
		}
		coinType = uint32(parsed)
	}
	if coinType != chain.CoinTypePolkadot {
		// Hex addresses normalize to lowercase; SS58 is case-sensitive.
		owner = strings.ToLower(owner)
	}
	return Account{CoinType: coinType, Address: owner}, nil
}
