package config

import "fmt"

// Validate checks the loaded configuration against the Vault and Property
// contracts' accepted ranges before it is applied to a fresh deployment.
func (c *Config) Validate() error {
	if c.Vault.BufferPercentage < 10 || c.Vault.BufferPercentage > 25 {
		return fmt.Errorf("config: vault.BufferPercentage must be between 10 and 25")
	}
	if c.Property.AnnualRateBps == 0 || c.Property.AnnualRateBps > 2000 {
		return fmt.Errorf("config: property.AnnualRateBps must be in (0,2000]")
	}
	switch c.StorageBackend {
	case StorageBackendMemory, StorageBackendLevelDB:
	default:
		return fmt.Errorf("config: unknown StorageBackend %q", c.StorageBackend)
	}
	return nil
}
