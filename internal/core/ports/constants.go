package ports

import "time"

const (
	BlockchainSubscriptionRetryDelay = 10 * time.Second // Delay before retrying subscription
	MaxConcurrentChecks              = 100              // Upper bound on concurrent confirmation checks
)
