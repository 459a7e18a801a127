package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var loadDotenv = godotenv.Load

// Config holds all configuration values
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Redis  RedisConfig
	Blob   BlobConfig
	Chain  ChainConfig
}

// ServerConfig holds process-level settings
type ServerConfig struct {
	Env string
}

// StoreConfig selects and configures the record store backend
type StoreConfig struct {
	Backend      string // "dynamodb" or "redis"
	DefaultTable string
	Region       string
	Endpoint     string
}

const (
	StoreBackendDynamo = "dynamodb"
	StoreBackendRedis  = "redis"
)

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// BlobConfig holds object store configuration
type BlobConfig struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	PartSize     int64
}

// ChainConfig holds remote chain config locations and RPC endpoints
type ChainConfig struct {
	AddressesURL    string
	ABIURL          string
	PortsURL        string
	EthereumHost    string
	InfuraProjectID string
	PolygonVigilKey string
	// The four URL templates take the API key through a single %s verb.
	MainnetRPCURL string
	MainnetWSURL  string
	PolygonRPCURL string
	PolygonWSURL  string
	FetchTimeout  time.Duration
	Preload       bool
}

// MainnetRPC renders the mainnet HTTP endpoint
func (c ChainConfig) MainnetRPC() string { return withKey(c.MainnetRPCURL, c.InfuraProjectID) }

// MainnetWS renders the mainnet websocket endpoint
func (c ChainConfig) MainnetWS() string { return withKey(c.MainnetWSURL, c.InfuraProjectID) }

// PolygonRPC renders the polygon HTTP endpoint
func (c ChainConfig) PolygonRPC() string { return withKey(c.PolygonRPCURL, c.PolygonVigilKey) }

// PolygonWS renders the polygon websocket endpoint
func (c ChainConfig) PolygonWS() string { return withKey(c.PolygonWSURL, c.PolygonVigilKey) }

func withKey(template, key string) string {
	return strings.Replace(template, "%s", key, 1)
}

// Load loads configuration from environment variables, reading .env first when present
func Load() *Config {
	_ = loadDotenv()

	return &Config{
		Server: ServerConfig{
			Env: getEnv("SERVER_ENV", "development"),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(getEnv("RECORD_STORE_BACKEND", StoreBackendDynamo)),
			DefaultTable: getEnv("RECORD_DEFAULT_TABLE", "sidechain-cache"),
			Region:       getEnv("AWS_REGION", "us-west-1"),
			Endpoint:     getEnv("DYNAMODB_ENDPOINT", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		Blob: BlobConfig{
			Region:       getEnv("S3_REGION", getEnv("AWS_REGION", "us-west-1")),
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			UsePathStyle: getEnvAsBool("S3_USE_PATH_STYLE", false),
			PartSize:     int64(getEnvAsInt("S3_PART_SIZE_MB", 5)) * 1024 * 1024,
		},
		Chain: ChainConfig{
			AddressesURL:    getEnv("CHAIN_ADDRESSES_URL", "https://contracts.webaverse.com/config/addresses.js"),
			ABIURL:          getEnv("CHAIN_ABI_URL", "https://contracts.webaverse.com/config/abi.js"),
			PortsURL:        getEnv("CHAIN_PORTS_URL", "https://contracts.webaverse.com/config/ports.js"),
			EthereumHost:    getEnv("ETHEREUM_HOST", ""),
			InfuraProjectID: getEnv("INFURA_PROJECT_ID", ""),
			PolygonVigilKey: getEnv("POLYGON_VIGIL_KEY", ""),
			MainnetRPCURL:   getEnv("MAINNET_RPC_URL", "https://mainnet.infura.io/v3/%s"),
			MainnetWSURL:    getEnv("MAINNET_WS_URL", "wss://mainnet.infura.io/ws/v3/%s"),
			PolygonRPCURL:   getEnv("POLYGON_RPC_URL", "https://rpc-mainnet.maticvigil.com/v1/%s"),
			PolygonWSURL:    getEnv("POLYGON_WS_URL", "wss://rpc-webverse-mainnet.maticvigil.com/v1/%s"),
			FetchTimeout:    getEnvAsDuration("CHAIN_CONFIG_FETCH_TIMEOUT", 30*time.Second),
			Preload:         getEnvAsBool("CHAIN_PRELOAD", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
