package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays credentials that are only ever taken from the
// environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("K3STAGE_SSH_PASSWORD"); v != "" {
		c.SSH.Password = v
	}
	if v := os.Getenv("K3STAGE_SSH_USER"); v != "" {
		c.SSH.User = v
	}
	if v := os.Getenv("K3STAGE_SSH_KEY"); v != "" {
		c.SSH.KeyPath = v
	}
	if v := os.Getenv("ETCD_S3_ACCESS_KEY"); v != "" && c.EtcdS3.AccessKey == "" {
		c.EtcdS3.AccessKey = v
	}
	if v := os.Getenv("ETCD_S3_SECRET_KEY"); v != "" && c.EtcdS3.SecretKey == "" {
		c.EtcdS3.SecretKey = v
	}
}
