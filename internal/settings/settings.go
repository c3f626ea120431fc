// Package settings holds the remote endpoint URL and shared secret.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/yukikurage/printshop-manager/internal/constants"
	"github.com/yukikurage/printshop-manager/internal/kvstore"
)

type Settings struct {
	Endpoint string `json:"scriptUrl"`
	Secret   string `json:"securityToken"`
}

// Configured reports whether both values are present.
func (s Settings) Configured() bool {
	return s.Endpoint != "" && s.Secret != ""
}

// Provider serves the current settings from memory and persists changes.
type Provider struct {
	kv kvstore.Store

	mu      sync.RWMutex
	current Settings
}

// NewProvider loads the persisted settings. Missing keys read as empty.
func NewProvider(ctx context.Context, kv kvstore.Store) (*Provider, error) {
	p := &Provider{kv: kv}

	endpoint, _, err := kv.Get(ctx, constants.StorageKeyScriptURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load script url: %w", err)
	}
	secret, _, err := kv.Get(ctx, constants.StorageKeySecurityToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load security token: %w", err)
	}

	p.current = Settings{Endpoint: endpoint, Secret: secret}
	return p, nil
}

func (p *Provider) Get() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *Provider) IsConfigured() bool {
	return p.Get().Configured()
}

// Save persists both values. Readers see the new values only after both writes succeed.
func (p *Provider) Save(ctx context.Context, endpoint, secret string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.kv.Set(ctx, constants.StorageKeyScriptURL, endpoint); err != nil {
		return fmt.Errorf("failed to save script url: %w", err)
	}
	if err := p.kv.Set(ctx, constants.StorageKeySecurityToken, secret); err != nil {
		return fmt.Errorf("failed to save security token: %w", err)
	}

	p.current = Settings{Endpoint: endpoint, Secret: secret}
	return nil
}
