package common

// EpochDuration is the fixed 30-day investment window length, in seconds,
// shared by Property epoch arithmetic and the Vault's FIFO wait-time
// estimator.
const EpochDuration int64 = 2_592_000

// GracePeriod is the window after EpochDuration during which a user may still
// self-service rollover/liquidate before an admin-forced rollover becomes
// eligible.
const GracePeriod int64 = 86_400

// BasisPointsDenominator is the scale for basis-point rates: 10_000 bps = 100%.
const BasisPointsDenominator = 10_000
