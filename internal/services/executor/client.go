package executor

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/NordCoder/apiwatch/internal/obs"
)

type Config struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`

	// The zero value verifies certificates and follows redirects.
	NoFollowRedirects  bool `mapstructure:"no_follow_redirects"`
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 5 << 20
)

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}

// NewHTTPClient builds the outbound client. Its transport is traced so run
// spans link to the request they issued.
func NewHTTPClient(cfg Config) *http.Client {
	cfg = cfg.withDefaults()
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		},
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: obs.HTTPTransport(transport),
	}
	if cfg.NoFollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
