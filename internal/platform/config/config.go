package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. The raffle parameters are
// immutable for the lifetime of the service; changing them means a new
// deployment and a new pool.
type Config struct {
	Addr string

	// Raffle parameters.
	EntranceFee *big.Int
	Interval    time.Duration

	// Oracle routing.
	VRFKeyHash          string
	VRFSubscriptionID   uint64
	VRFCallbackGasLimit uint32
	// VRFCoordinatorURL selects the remote coordinator; empty runs the
	// in-process development coordinator.
	VRFCoordinatorURL   string
	VRFCoordinatorToken string

	// Keeper schedule, cron syntax with a seconds field.
	KeeperSchedule string
	KeeperEnabled  bool

	// Machine-to-machine auth for the upkeep and fulfillment endpoints.
	// MachineAPIKeyHash, when set, additionally accepts the bcrypt-hashed
	// shared secret in X-API-Key.
	JWTSigningKey     string
	MachineAPIKeyHash string

	// Optional backing services; empty keeps the in-memory defaults.
	PostgresURL  string
	RedisURL     string
	KafkaBrokers string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
// Development defaults favor a self-contained process: memory stores and
// the local coordinator.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("RAFFLE_ADDR", ":8080"),
		VRFKeyHash:          envOr("VRF_KEY_HASH", "0x"+devKeyHash),
		VRFCoordinatorURL:   os.Getenv("VRF_COORDINATOR_URL"),
		VRFCoordinatorToken: os.Getenv("VRF_COORDINATOR_TOKEN"),
		KeeperSchedule:      envOr("KEEPER_SCHEDULE", "*/10 * * * * *"),
		KeeperEnabled:       os.Getenv("KEEPER_DISABLED") != "true",
		// Default for development only - must be overridden in production.
		JWTSigningKey:     envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		MachineAPIKeyHash: os.Getenv("MACHINE_API_KEY_HASH"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:    envOr("KAFKA_TOPIC", "raffle.events"),
	}

	fee, ok := new(big.Int).SetString(envOr("RAFFLE_ENTRANCE_FEE", "10000000000000000"), 10)
	if !ok || fee.Sign() <= 0 {
		return Config{}, fmt.Errorf("RAFFLE_ENTRANCE_FEE must be a positive integer")
	}
	cfg.EntranceFee = fee

	interval, err := time.ParseDuration(envOr("RAFFLE_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("RAFFLE_INTERVAL: %w", err)
	}
	cfg.Interval = interval

	subID, err := strconv.ParseUint(envOr("VRF_SUBSCRIPTION_ID", "1"), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("VRF_SUBSCRIPTION_ID: %w", err)
	}
	cfg.VRFSubscriptionID = subID

	gasLimit, err := strconv.ParseUint(envOr("VRF_CALLBACK_GAS_LIMIT", "500000"), 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("VRF_CALLBACK_GAS_LIMIT: %w", err)
	}
	cfg.VRFCallbackGasLimit = uint32(gasLimit)

	return cfg, nil
}

// devKeyHash is a stable non-zero oracle lane for development setups.
const devKeyHash = "474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
