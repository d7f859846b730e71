package shared

import (
	"os"
	"strings"
)

const EnvChainDebugMode = "CHAIN_DEBUG_MODE"

// IsChainDebugMode reports whether the chain watchers should run against test
// networks instead of mainnet.
func IsChainDebugMode() bool {
	debugMode := os.Getenv(EnvChainDebugMode)
	return strings.ToLower(debugMode) == "true" || strings.ToLower(debugMode) == "1"
}
