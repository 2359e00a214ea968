package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"pairScope/internal/model"
)

// FactoryResolver returns the pair factory contract address for the active network.
type FactoryResolver interface {
	FactoryAddress(ctx context.Context) (string, error)
}

// StaticFactory always resolves to a configured address.
type StaticFactory string

func (f StaticFactory) FactoryAddress(context.Context) (string, error) {
	if f == "" {
		return "", fmt.Errorf("factory address is empty")
	}
	return string(f), nil
}

// DefaultContractsURL is Soroswap's published contract id list; %s is the lowercase network.
const DefaultContractsURL = "https://raw.githubusercontent.com/soroswap/core/main/public/%s.contracts.json"

// RemoteFactory fetches the factory id from a published contracts JSON document
// ({"ids": {"factory": "C..."}}) and caches the first successful answer.
type RemoteFactory struct {
	URL        string
	HTTPClient *http.Client

	mu      sync.Mutex
	address string
}

// NewRemoteFactory builds a resolver for a network. An empty urlTemplate uses
// DefaultContractsURL.
func NewRemoteFactory(network model.Network, urlTemplate string, timeout time.Duration) *RemoteFactory {
	if urlTemplate == "" {
		urlTemplate = DefaultContractsURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	url := urlTemplate
	if strings.Contains(urlTemplate, "%s") {
		url = fmt.Sprintf(urlTemplate, strings.ToLower(string(network)))
	}
	return &RemoteFactory{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type contractsDocument struct {
	IDs struct {
		Factory string `json:"factory"`
	} `json:"ids"`
}

func (f *RemoteFactory) FactoryAddress(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.address != "" {
		return f.address, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build factory request: %w", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch factory address: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch factory address: status %d", resp.StatusCode)
	}

	var doc contractsDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode contracts document: %w", err)
	}
	if doc.IDs.Factory == "" {
		return "", fmt.Errorf("contracts document has no factory id")
	}
	f.address = doc.IDs.Factory
	return f.address, nil
}
