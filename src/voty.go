package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/renzholy/voty/src/api/config"
	"github.com/renzholy/voty/src/api/webserver"
	"github.com/renzholy/voty/src/authorship"
	"github.com/renzholy/voty/src/chain"
	"github.com/renzholy/voty/src/data"
	"github.com/renzholy/voty/src/did"
	"github.com/renzholy/voty/src/phase"
	"github.com/renzholy/voty/src/storage"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := data.LoadSettings(db); err != nil {
		log.Printf("settings: %v", err)
	}
	rdb := data.MustRedis(cfg.RedisURL)

	// Endpoints come from env, overridable per deployment via the settings
	// table without a restart-and-reconfigure cycle.
	ethereumURL := cfg.EthereumRPCURL
	if v := data.GetSetting("ethereum_rpc_url"); v != "" {
		ethereumURL = v
	}
	polkadotURL := cfg.PolkadotRPCURL
	if v := data.GetSetting("polkadot_rpc_url"); v != "" {
		polkadotURL = v
	}

	evm, err := chain.DialEVM(ethereumURL)
	if err != nil {
		log.Fatalf("ethereum rpc: %v", err)
	}
	substrate, err := chain.DialSubstrate(polkadotURL)
	if err != nil {
		log.Fatalf("polkadot rpc: %v", err)
	}
	arweave := chain.NewArweave(cfg.ArweaveGateway)

	chains := chain.NewRegistry()
	chains.Register(chain.CoinTypeEthereum, chain.NewCached(evm, rdb, chain.CoinTypeEthereum))
	chains.Register(chain.CoinTypePolkadot, chain.NewCached(substrate, rdb, chain.CoinTypePolkadot))
	chains.Register(chain.CoinTypeArweave, chain.NewCached(arweave, rdb, chain.CoinTypeArweave))
	chains.RegisterBalances(chain.CoinTypeEthereum, evm)
	chains.RegisterBalances(chain.CoinTypePolkadot, substrate)

	dids := did.NewRegistry()
	dids.Register("bit", did.NewDotbit(cfg.DotbitIndexer))
	dids.Register("eth", did.NewENS(evm))
	dids.Register("dot", did.NewDot())

	network := storage.NewGateway(cfg.ArweaveGateway)

	var signer *authorship.Signer
	if cfg.PlatformKeyHex != "" {
		signer, err = authorship.NewSigner(cfg.PlatformKeyHex)
		if err != nil {
			log.Fatalf("platform key: %v", err)
		}
		log.Printf("platform signing identity %s", signer.Address())
	}

	svc := &webserver.Services{
		DB:       db,
		RDB:      rdb,
		Chains:   chains,
		Dids:     dids,
		Verifier: authorship.NewVerifier(dids),
		Network:  network,
		Filler:   phase.NewFiller(network, chains),
		Signer:   signer,
	}

	router := webserver.New(cfg, svc)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("voty API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
