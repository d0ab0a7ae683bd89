package plantnet

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/observability/metrics"
)

// maxResponseBytes bounds the JSON body read from the service
const maxResponseBytes = 4 << 20

// Client identifies plant species from images. Safe for concurrent use.
type Client struct {
	config  Config
	http    *httpclient.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	metrics *metrics.ExsicataMetrics
	log     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithMetrics records identification calls
func WithMetrics(m *metrics.ExsicataMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client. The API key is required.
func NewClient(config Config, httpClient *httpclient.Client, opts ...Option) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.Newf("Pl@ntNet API key is required").
			Category(errors.CategoryConfiguration).
			Component("plantnet").
			Build()
	}

	defaults := DefaultConfig()
	if config.Endpoint == "" {
		config.Endpoint = defaults.Endpoint
	}
	if config.Organ == "" {
		config.Organ = defaults.Organ
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if httpClient == nil {
		httpClient = httpclient.New(nil)
	}

	c := &Client{config: config, http: httpClient}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Every(config.RateLimit), 1)
	}
	if config.CacheTTL > 0 {
		c.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Global().Module("plantnet")
	}

	c.log.Info("identification client initialized",
		logger.URL("endpoint", config.Endpoint),
		logger.String("organ", config.Organ),
		logger.Duration("rate_limit", config.RateLimit),
		logger.Duration("cache_ttl", config.CacheTTL))
	return c, nil
}

// Identify submits one image and returns the candidates in the order the
// service ranked them. An empty slice means the service found no match.
// Failed requests are not retried.
func (c *Client) Identify(ctx context.Context, image []byte, filename, contentType string) ([]Candidate, error) {
	if len(image) == 0 {
		return nil, errors.Newf("empty image").
			Category(errors.CategoryValidation).
			Component("plantnet").
			Build()
	}

	key := cacheKey(image, c.config.Organ)
	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			if candidates, ok := cached.([]Candidate); ok {
				c.log.Debug("identification cache hit", logger.Int("candidates", len(candidates)))
				return append([]Candidate(nil), candidates...), nil
			}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryCancellation).
				Component("plantnet").
				Build()
		}
	}

	start := time.Now()
	candidates, err := c.identify(ctx, image, filename, contentType)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case len(candidates) == 0:
		status = "no_match"
	}
	c.metrics.RecordIdentification(status, time.Since(start))
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(key, append([]Candidate(nil), candidates...), cache.DefaultExpiration)
	}
	return candidates, nil
}

func (c *Client) identify(ctx context.Context, image []byte, filename, contentType string) ([]Candidate, error) {
	body, formType, err := c.buildForm(image, filename, contentType)
	if err != nil {
		return nil, err
	}

	target := c.config.Endpoint + "?api-key=" + url.QueryEscape(c.config.APIKey)
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.http.Post(reqCtx, target, formType, body)
	if err != nil {
		c.log.Error("identification request failed",
			logger.URL("url", target),
			logger.Error(err))
		return nil, errors.New(errors.Sanitize(err)).
			Category(errors.CategoryIdentification).
			Component("plantnet").
			NetworkContext(logger.RedactURL(target), c.config.Timeout).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAll(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryIdentification).
			Component("plantnet").
			Context("status_code", resp.StatusCode).
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("identification service returned status %d", resp.StatusCode)
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			msg += ": " + apiErr.Message
		}
		c.log.Warn("identification rejected",
			logger.Int("status_code", resp.StatusCode),
			logger.String("message", apiErr.Message))
		return nil, errors.Newf("%s", msg).
			Category(errors.CategoryIdentification).
			Component("plantnet").
			Context("status_code", resp.StatusCode).
			Build()
	}

	var parsed identifyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.New(fmt.Errorf("failed to decode identification response: %w", err)).
			Category(errors.CategoryIdentification).
			Component("plantnet").
			Build()
	}

	candidates := make([]Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		candidates = append(candidates, Candidate{
			ScientificName: r.Species.ScientificNameWithoutAuthor,
			Score:          r.Score,
		})
	}
	c.log.Debug("identification completed", logger.Int("candidates", len(candidates)))
	return candidates, nil
}

// buildForm encodes the images and organs fields
func (c *Client) buildForm(image []byte, filename, contentType string) (*bytes.Buffer, string, error) {
	if filename == "" {
		filename = "image.jpg"
	}
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err == nil {
		_, err = part.Write(image)
	}
	if err == nil {
		err = w.WriteField("organs", c.config.Organ)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		return nil, "", errors.New(err).
			Category(errors.CategoryIdentification).
			Component("plantnet").
			Build()
	}
	return &buf, w.FormDataContentType(), nil
}

func cacheKey(image []byte, organ string) string {
	sum := sha256.Sum256(image)
	return organ + ":" + hex.EncodeToString(sum[:])
}
