package server

import (
	"fmt"
	"sync"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// apiKeysField is the secret field holding comma separated API keys.
const apiKeysField = "keys"

// SecretReader reads versioned KVv2 secrets.
type SecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// APIKeysCallback receives the API keys of a new secret version.
type APIKeysCallback func(keys []string)

// VaultWatcher polls the API key secret and hands every new version's keys
// to a callback. Only versions newer than the last seen one trigger it.
type VaultWatcher struct {
	mu sync.RWMutex

	client       SecretReader
	secretPath   string
	pollInterval time.Duration
	onUpdate     APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastError   string
	lastChecked time.Time
}

// NewVaultWatcher creates a new VaultWatcher. initialVersion is the version
// already applied at startup, so the first poll does not re-apply it.
func NewVaultWatcher(client SecretReader, secretPath string, pollInterval time.Duration, initialVersion int64, onUpdate APIKeysCallback, logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onUpdate:     onUpdate,
		logger:       logger,
		stopChan:     make(chan struct{}),
		lastVersion:  initialVersion,
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := vw.poll(); err != nil {
				vw.logger.LogError(err, "Failed to check Vault for API key updates")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and applies it when its version advanced.
func (vw *VaultWatcher) poll() error {
	keys, version, changed, err := vw.checkForUpdates()

	vw.mu.Lock()
	vw.lastChecked = time.Now()
	if err != nil {
		vw.lastError = err.Error()
	} else {
		vw.lastError = ""
	}
	vw.mu.Unlock()

	if err != nil || !changed {
		return err
	}

	vw.logger.Info("Vault API key secret changed, applying new keys",
		"version", version,
		"count", len(keys))
	vw.onUpdate(keys)
	return nil
}

// checkForUpdates reports whether the secret has a version newer than the
// last applied one, and returns its keys if so. A new version without the
// keys field is an error and is not marked as seen.
func (vw *VaultWatcher) checkForUpdates() ([]string, int64, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, 0, false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.RLock()
	last := vw.lastVersion
	vw.mu.RUnlock()
	if secret.Version <= last {
		return nil, secret.Version, false, nil
	}

	keys, err := secret.StringSlice(apiKeysField)
	if err != nil {
		return nil, secret.Version, false, fmt.Errorf("%s: %w", vw.secretPath, err)
	}

	vw.mu.Lock()
	vw.lastVersion = secret.Version
	vw.mu.Unlock()
	return keys, secret.Version, true, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
	if !vw.lastChecked.IsZero() {
		status["last_checked"] = vw.lastChecked
	}
	if vw.lastError != "" {
		status["last_error"] = vw.lastError
	}
	return status
}
