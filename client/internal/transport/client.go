package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"NarcissusTCG/client/internal/metrics"
	"NarcissusTCG/pkg/httpx"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Config contiene le impostazioni del trasporto.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit in richieste al secondo; 0 disabilita il limiter.
	RateLimit float64
	RateBurst int
}

// Option personalizza il Client.
type Option func(*Client)

// WithLogger imposta il logger per le richieste.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics collega il recorder Prometheus.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = recorder }
}

// WithUnauthorizedHandler registra la callback invocata su ogni HTTP 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// Client e' il wrapper HTTP condiviso da tutte le funzioni endpoint.
// Non contiene stato di business: solo base URL, cookie di sessione e limiter.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	limiter        *rate.Limiter
	logger         *slog.Logger
	metrics        *metrics.Recorder
	onUnauthorized func()

	jarMu sync.RWMutex
	jar   http.CookieJar
}

// New valida la configurazione e crea il client.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	jar, err := newJar()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
		jar:     jar,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// BaseURL ritorna una copia dell'URL base.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// SessionCookies ritorna i cookie attualmente associati al backend.
func (c *Client) SessionCookies() []*http.Cookie {
	c.jarMu.RLock()
	defer c.jarMu.RUnlock()
	return c.jar.Cookies(c.baseURL)
}

// RestoreCookies reinserisce cookie persistiti (es. dopo un riavvio).
func (c *Client) RestoreCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.jarMu.Lock()
	defer c.jarMu.Unlock()
	c.jar.SetCookies(c.baseURL, cookies)
}

// ResetCookies scarta tutti i cookie di sessione.
func (c *Client) ResetCookies() {
	jar, err := newJar()
	if err != nil {
		c.logger.Error("reset cookie jar fallito", "error", err)
		return
	}
	c.jarMu.Lock()
	c.jar = jar
	c.jarMu.Unlock()
}

func (c *Client) cookies() http.CookieJar {
	c.jarMu.RLock()
	defer c.jarMu.RUnlock()
	return c.jar
}

// Call esegue la richiesta e decodifica l'envelope tipizzato.
func Call[T any](ctx context.Context, c *Client, req Request) (*Envelope[T], error) {
	var env Envelope[T]
	if err := c.Do(ctx, req, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Do esegue una richiesta. out, se non nil, riceve l'envelope decodificato.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	route := req.Route
	if route == "" {
		route = req.Path
	}
	op := req.Method + " " + route

	// 1) Body e validazione upload, prima di qualsiasi I/O.
	body, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	// 2) Rate limit lato client.
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: op, Err: err}
		}
	}

	// 3) Costruisce la richiesta HTTP.
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := httpx.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set(httpx.RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	jar := c.cookies()
	for _, cookie := range jar.Cookies(target) {
		httpReq.AddCookie(cookie)
	}

	// 4) Invio.
	start := time.Now()
	c.metrics.RequestStarted()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RequestDone(req.Method, route, 0, time.Since(start))
		c.logger.Warn("richiesta fallita", "op", op, "request_id", requestID, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if cookies := resp.Cookies(); len(cookies) > 0 {
		jar.SetCookies(target, cookies)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.RequestDone(req.Method, route, resp.StatusCode, time.Since(start))
	c.logger.Debug("richiesta completata", "op", op, "status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start))
	if readErr != nil {
		return &NetworkError{Op: op, Err: readErr}
	}

	// 5) Status e envelope.
	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	if out == nil {
		return nil
	}
	if !gjson.ValidBytes(raw) || !gjson.GetBytes(raw, "success").Exists() {
		return &DecodeError{Status: resp.StatusCode, Err: ErrMalformedEnvelope}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Status: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	raw := c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		raw += "?" + query.Encode()
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("build url %q: %w", path, err)
	}
	return u, nil
}

// encodeBody serializza JSON o multipart. Per il multipart il content type
// arriva dal writer, cosi' il boundary e' sempre quello generato.
func encodeBody(req Request) (io.Reader, string, error) {
	if req.Upload != nil {
		return encodeUpload(req.Upload)
	}
	if req.Body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

// ValidateUpload accetta solo immagini non vuote e ritorna il tipo rilevato.
func ValidateUpload(up *Upload) (string, error) {
	if len(up.Content) == 0 {
		return "", &ValidationError{Field: up.Field, Reason: "file is empty"}
	}
	kind := http.DetectContentType(up.Content)
	if !strings.HasPrefix(kind, "image/") {
		return "", &ValidationError{Field: up.Field, Reason: "unsupported media type " + kind}
	}
	return kind, nil
}

func encodeUpload(up *Upload) (io.Reader, string, error) {
	kind, err := ValidateUpload(up)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, up.Field, up.Filename))
	header.Set("Content-Type", kind)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(up.Content); err != nil {
		return nil, "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// errorMessage cerca il messaggio nel body: envelope, poi formati FastAPI.
func errorMessage(raw []byte, fallback string) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"message", "detail", "detail.0.msg"} {
			v := gjson.GetBytes(raw, path)
			if v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	return fallback
}

// IsValidation riporta se err e' un rifiuto lato client.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
