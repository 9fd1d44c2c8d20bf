package main

import (
	"flag"
	"fmt"

	"verse/cmd/internal/passphrase"
	"verse/config"
)

const defaultAdminPassEnv = "VERSE_ADMIN_PASS"

func runAdmin(args []string) error {
	fs := flag.NewFlagSet(adminCommand, flag.ExitOnError)
	configPath := fs.String("config", "./config.toml", "Path to the versectl config file")
	passEnv := fs.String("pass-env", defaultAdminPassEnv, "Environment variable containing the admin keystore passphrase")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	source := passphrase.NewSource(*passEnv)
	pass, err := source.Get()
	if err != nil {
		return fmt.Errorf("resolve passphrase: %w", err)
	}

	key, err := cfg.LoadAdminKey(pass)
	if err != nil {
		return fmt.Errorf("load admin key: %w", err)
	}

	fmt.Printf("Admin address: %s\n", key.PubKey().Address())
	return nil
}
