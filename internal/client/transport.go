package client

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewHTTPClient builds the transport shared by the session and the Xray
// client. retryMax of zero disables retries; otherwise 5xx, 429 and transport
// errors are retried with exponential backoff.
func NewHTTPClient(timeout time.Duration, retryMax int, skipTLS bool) *retryablehttp.Client {
	httpClient := &http.Client{
		Timeout: timeout,
	}

	if skipTLS {
		slog.Warn("TLS verification disabled for Xray client")
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		Logger:       slog.Default(),
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RetryMax:     retryMax,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	if retryMax > 0 {
		client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			retry, retryErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
			if retry {
				if resp != nil && resp.Request != nil {
					slog.Warn("Retrying Xray request", "url", resp.Request.URL.String(), "status_code", resp.StatusCode)
				} else {
					slog.Warn("Retrying Xray request", "error", err)
				}
			}
			return retry, retryErr
		}
	} else {
		client.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
			return false, err
		}
	}

	return client
}
