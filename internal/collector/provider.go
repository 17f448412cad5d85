package collector

import (
	"fmt"
	"strings"
)

// NewFetcher builds the Fetcher for a configured provider name.
func NewFetcher(provider, baseURL, apiKey, proxyURL string) (Fetcher, error) {
	switch strings.ToLower(provider) {
	case "", "yahoo":
		f := NewYahooFetcher(proxyURL)
		if baseURL != "" {
			f.BaseURL = baseURL
		}
		return f, nil
	case "finnhub":
		if apiKey == "" {
			return nil, fmt.Errorf("finnhub requires an API key")
		}
		return NewFinnhubFetcher(apiKey, proxyURL), nil
	case "rest":
		if baseURL == "" {
			return nil, fmt.Errorf("rest provider requires a base URL")
		}
		return NewRESTFetcher(baseURL, apiKey, proxyURL), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}
