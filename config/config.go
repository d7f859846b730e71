package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App      `json:"app"      toml:"app"`
		HTTP     `json:"http"     toml:"http"`
		DB       `json:"db"       toml:"db"`
		Log      `json:"logger"   toml:"logger"`
		Operator `json:"operator" toml:"operator"`
		Custody  `json:"custody"  toml:"custody"`
		EVM      `json:"evm"      toml:"evm"`
		Solana   `json:"solana"   toml:"solana"`
		Relayer  `json:"relayer"  toml:"relayer"`
	}

	App struct {
		Name        string `json:"name"        toml:"name"        env:"APP_NAME"`
		Environment string `json:"environment" toml:"environment" env:"ENV_NAME" env-default:"dev"`
		Debug       bool   `json:"debug"       toml:"debug"       env:"DEBUG"    env-default:"false"`
	}

	HTTP struct {
		Port string `json:"port" toml:"port" env:"HTTP_PORT" env-default:"8080"`
	}

	DB struct {
		DatabaseURL       string `json:"database_url"        toml:"database_url"        env:"DATABASE_URL"`
		PoolMax           int32  `json:"pool_max"            toml:"pool_max"            env:"PG_POOL_MAX" env-default:"10"`
		ConnectTimeout    int    `json:"connect_timeout"     toml:"connect_timeout"     env:"PG_POOL_CONN_TIMEOUT" env-default:"5"`
		HealthCheckPeriod int    `json:"health_check_period" toml:"health_check_period" env:"PG_POOL_HEALTHCHECK" env-default:"1"`
	}

	Log struct {
		Level slog.Level `json:"level" toml:"level" env:"LOG_LEVEL"`
	}

	// Operator is the single identity allowed to call privileged actions:
	// whitelist changes, manual order placement and lifecycle transitions.
	Operator struct {
		Name string `json:"name" toml:"name" env:"OPERATOR_NAME" env-default:"bridge"`
		Key  string `json:"key"  toml:"key"  env:"OPERATOR_KEY"`
	}

	// Custody configures the accounts the bridge receives deposits on.
	Custody struct {
		Seed          string `json:"seed"           toml:"seed"           env:"CUSTODY_SEED"`
		SolanaAccount string `json:"solana_account" toml:"solana_account" env:"CUSTODY_SOLANA_ACCOUNT"`
	}

	EVM struct {
		RPCURL                string `json:"rpc_url"                toml:"rpc_url"                env:"EVM_RPC_URL"`
		Symbol                string `json:"symbol"                 toml:"symbol"                 env:"EVM_SYMBOL" env-default:"XYZ"`
		Precision             uint8  `json:"precision"              toml:"precision"              env:"EVM_PRECISION" env-default:"4"`
		RequiredConfirmations uint64 `json:"required_confirmations" toml:"required_confirmations" env:"EVM_CONFIRMATIONS" env-default:"3"`
		TokenContract         string `json:"token_contract"         toml:"token_contract"         env:"EVM_TOKEN_CONTRACT"`
	}

	Solana struct {
		RPCURL    string `json:"rpc_url"   toml:"rpc_url"   env:"SOLANA_RPC_URL"`
		WSURL     string `json:"ws_url"    toml:"ws_url"    env:"SOLANA_WS_URL"`
		Symbol    string `json:"symbol"    toml:"symbol"    env:"SOLANA_SYMBOL" env-default:"SOL"`
		Precision uint8  `json:"precision" toml:"precision" env:"SOLANA_PRECISION" env-default:"4"`
	}

	Relayer struct {
		PollIntervalSeconds int `json:"poll_interval_seconds" toml:"poll_interval_seconds" env:"RELAYER_POLL_INTERVAL" env-default:"5"`
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	_, b, _, _ := runtime.Caller(0)
	basePath := filepath.Dir(b)

	configTomlPath := filepath.Join(basePath, "config.toml")
	err := cleanenv.ReadConfig(configTomlPath, cfg)
	if err != nil {
		configJsonPath := filepath.Join(basePath, "config.json")
		err = cleanenv.ReadConfig(configJsonPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	err = cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("env read error: %w", err)
	}

	return cfg, nil
}
