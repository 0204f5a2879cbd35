package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/notary/internal/domain"
)

// Config holds all runtime configuration for the notary service.
type Config struct {
	Port     int
	LogLevel string

	// Ledger. TotalSupply is in base units, i.e. already scaled by
	// TokenDecimals.
	TotalSupply   int64
	TokenDecimals int32
	OwnerAccount  domain.Address
	NotaryAccount domain.Address

	// Asset registries deployed at startup, all minted by OwnerAccount.
	Registries      []domain.Address
	MetadataBaseURI string

	WebhookTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	decimals, err := getInt("TOKEN_DECIMALS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_DECIMALS: %w", err)
	}
	if decimals < 0 || decimals > 18 {
		return nil, fmt.Errorf("invalid TOKEN_DECIMALS: %d, must be between 0 and 18", decimals)
	}

	supplyStr := getStr("TOTAL_SUPPLY", "1000000")
	supply, err := domain.ToBaseUnits(supplyStr, int32(decimals))
	if err != nil {
		return nil, fmt.Errorf("invalid TOTAL_SUPPLY: %w", err)
	}
	if supply < 0 {
		return nil, fmt.Errorf("invalid TOTAL_SUPPLY: %q, must not be negative", supplyStr)
	}

	owner := domain.ParseAddress(getStr("OWNER_ACCOUNT", "owner"))
	notary := domain.ParseAddress(getStr("NOTARY_ACCOUNT", "notary"))
	if owner.IsZero() || notary.IsZero() {
		return nil, fmt.Errorf("OWNER_ACCOUNT and NOTARY_ACCOUNT must not be blank")
	}
	if owner == notary {
		return nil, fmt.Errorf("invalid NOTARY_ACCOUNT: %q is also the OWNER_ACCOUNT", notary)
	}

	registries, err := getAddressList("REGISTRIES", "car,house")
	if err != nil {
		return nil, fmt.Errorf("invalid REGISTRIES: %w", err)
	}
	for _, r := range registries {
		if r == notary {
			return nil, fmt.Errorf("invalid REGISTRIES: %q is the NOTARY_ACCOUNT", r)
		}
	}

	baseURI := getStr("METADATA_BASE_URI", "https://ipfs.io/ipfs/")

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		TotalSupply:     supply,
		TokenDecimals:   int32(decimals),
		OwnerAccount:    owner,
		NotaryAccount:   notary,
		Registries:      registries,
		MetadataBaseURI: baseURI,
		WebhookTimeout:  webhookTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getAddressList parses a comma-separated list of distinct, non-empty
// addresses.
func getAddressList(key, defaultVal string) ([]domain.Address, error) {
	parts := strings.Split(getStr(key, defaultVal), ",")
	seen := make(map[domain.Address]bool, len(parts))
	result := make([]domain.Address, 0, len(parts))
	for _, p := range parts {
		addr := domain.ParseAddress(p)
		if addr.IsZero() {
			return nil, fmt.Errorf("empty entry in %q", os.Getenv(key))
		}
		if seen[addr] {
			return nil, fmt.Errorf("duplicate entry %q", addr)
		}
		seen[addr] = true
		result = append(result, addr)
	}
	return result, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
