package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/pawkeep/pawkeep/internal/errors"
)

// ShoutrrrProvider delivers notifications through shoutrrr service
// URLs (ntfy, telegram, email and friends).
type ShoutrrrProvider struct {
	name    string
	enabled bool
	urls    []string
	types   []Type
	timeout time.Duration
	sender  *router.ServiceRouter
}

// NewShoutrrrProvider creates a provider for the given shoutrrr URLs.
// When filterTypes is non-empty, only notifications of those types are
// forwarded.
func NewShoutrrrProvider(name string, enabled bool, urls []string, filterTypes []Type, timeout time.Duration) *ShoutrrrProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShoutrrrProvider{
		name:    name,
		enabled: enabled,
		urls:    urls,
		types:   filterTypes,
		timeout: timeout,
	}
}

// Name returns the provider name.
func (p *ShoutrrrProvider) Name() string { return p.name }

// Enabled reports whether the provider should receive notifications.
func (p *ShoutrrrProvider) Enabled() bool { return p.enabled }

// ValidateConfig parses the configured URLs and builds the sender.
func (p *ShoutrrrProvider) ValidateConfig() error {
	if len(p.urls) == 0 {
		return errors.Newf("provider %s has no URLs configured", p.name).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	sender, err := shoutrrr.CreateSender(p.urls...)
	if err != nil {
		return errors.New(fmt.Errorf("invalid shoutrrr URL: %w", err)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("provider", p.name).
			Build()
	}
	p.sender = sender
	return nil
}

// Send forwards a notification to every configured URL.
func (p *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if p.sender == nil {
		if err := p.ValidateConfig(); err != nil {
			return err
		}
	}
	if !p.accepts(n.Type) {
		return nil
	}

	params := &types.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}

	done := make(chan error, 1)
	go func() {
		var sendErr error
		for _, err := range p.sender.Send(n.Message, params) {
			if err != nil {
				sendErr = err
				break
			}
		}
		done <- sendErr
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return errors.New(fmt.Errorf("shoutrrr delivery failed: %w", err)).
				Component("notification").
				Category(errors.CategoryNetwork).
				Context("provider", p.name).
				Build()
		}
		return nil
	case <-timer.C:
		return errors.Newf("shoutrrr delivery timed out after %s", p.timeout).
			Component("notification").
			Category(errors.CategoryNetwork).
			Context("provider", p.name).
			Build()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ShoutrrrProvider) accepts(t Type) bool {
	if len(p.types) == 0 {
		return true
	}
	for _, accepted := range p.types {
		if accepted == t {
			return true
		}
	}
	return false
}
