package config

import (
	"log"
	"os"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	Port           string
	EthereumRPCURL string
	PolkadotRPCURL string
	DotbitIndexer  string
	ArweaveGateway string
	PlatformKeyHex string
	AllowedOrigins string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	return Config{
		MySQLDSN:       getenv("MYSQL_DSN", "voty:voty@tcp(127.0.0.1:3306)/voty"),
		RedisURL:       getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		Port:           getenv("PORT", "8080"),
		EthereumRPCURL: getenv("ETHEREUM_RPC_URL", "https://eth.llamarpc.com"),
		PolkadotRPCURL: getenv("POLKADOT_RPC_URL", "wss://rpc.polkadot.io"),
		DotbitIndexer:  getenv("DOTBIT_INDEXER_URL", "https://indexer-v1.did.id"),
		ArweaveGateway: getenv("ARWEAVE_GATEWAY_URL", "https://arweave.net"),
		PlatformKeyHex: os.Getenv("PLATFORM_KEY"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", "*"),
	}
}
