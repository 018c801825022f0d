package githubapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
)

var ErrMissingInstallation = errors.New("delivery has no app installation")

type FactoryOption func(*ClientFactory)

// WithBaseURL points the factory at a GitHub Enterprise Server.
func WithBaseURL(baseURL string) FactoryOption {
	return func(f *ClientFactory) {
		f.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithTransport(transport http.RoundTripper) FactoryOption {
	return func(f *ClientFactory) {
		f.transport = transport
	}
}

// ClientFactory builds one client per installation and reuses it; the
// installation transport refreshes its token on its own.
type ClientFactory struct {
	appID      int64
	privateKey []byte
	baseURL    string
	transport  http.RoundTripper

	mu      sync.Mutex
	clients map[int64]*Client
}

var _ vcs.ClientFactory = (*ClientFactory)(nil)

func NewClientFactory(appID int64, privateKey []byte, opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{
		appID:      appID,
		privateKey: privateKey,
		transport:  http.DefaultTransport,
		clients:    make(map[int64]*Client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *ClientFactory) ForInstallation(_ context.Context, installationID int64) (vcs.Client, error) {
	if installationID == 0 {
		return nil, ErrMissingInstallation
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[installationID]; ok {
		return client, nil
	}

	itr, err := ghinstallation.New(f.transport, f.appID, installationID, f.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate installation %d: %w", installationID, err)
	}

	httpClient := &http.Client{Transport: itr}

	var client *Client
	if f.baseURL == "" {
		client = NewClient(httpClient)
	} else {
		itr.BaseURL = f.baseURL + "/api/v3"

		client, err = NewEnterpriseClient(f.baseURL, httpClient)
		if err != nil {
			return nil, err
		}
	}

	f.clients[installationID] = client

	return client, nil
}
