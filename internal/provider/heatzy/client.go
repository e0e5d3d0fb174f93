package heatzy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/provider"
)

const (
	DefaultBaseURL = "https://euapi.gizwits.com/app"
	// ApplicationID identifies the Heatzy app to the Gizwits cloud.
	ApplicationID = "c70a66ff039d41b4a220e198b0fcc8b3"

	defaultTimeout = 15 * time.Second
)

var errNotLoggedIn = errors.New("heatzy: not logged in")

var _ provider.Provider = (*Client)(nil)

// Credentials is the JSON document referenced by set_heaters.providers.heatzy.credentials.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ParseCredentials decodes and checks a credentials document.
func ParseCredentials(raw []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, fmt.Errorf("heatzy credentials: %w", err)
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, errors.New("heatzy credentials: username and password are required")
	}
	return c, nil
}

// Client talks to the Gizwits cloud on behalf of one Heatzy account.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	log        *logger.Logger

	mu    sync.Mutex
	token string
	dids  map[string]string // alias -> did
}

// New returns a client; call Login before any other method.
func New(baseURL string, creds Credentials, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.With("provider", models.FamilyHeatzy),
		dids:       map[string]string{},
	}
}

func (c *Client) Family() models.Family { return models.FamilyHeatzy }

// Login exchanges the account credentials for a user token.
func (c *Client) Login(ctx context.Context) error {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": c.creds.Username, "password": c.creds.Password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		return fmt.Errorf("heatzy login: %w", err)
	}
	if out.Token == "" {
		return errors.New("heatzy login: empty token")
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	c.log.Debugw("provider_logged_in")
	return nil
}

type binding struct {
	DID   string `json:"did"`
	Alias string `json:"dev_alias"`
}

// ListDevices returns the aliases of every device bound to the account.
func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	var out struct {
		Devices []binding `json:"devices"`
	}
	if err := c.do(ctx, http.MethodGet, "/bindings", nil, &out); err != nil {
		return nil, fmt.Errorf("heatzy bindings: %w", err)
	}
	names := make([]string, 0, len(out.Devices))
	c.mu.Lock()
	c.dids = make(map[string]string, len(out.Devices))
	for _, b := range out.Devices {
		c.dids[b.Alias] = b.DID
		names = append(names, b.Alias)
	}
	c.mu.Unlock()
	return names, nil
}

func (c *Client) resolve(ctx context.Context, device string) (string, error) {
	c.mu.Lock()
	did, ok := c.dids[device]
	c.mu.Unlock()
	if ok {
		return did, nil
	}
	if _, err := c.ListDevices(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	did, ok = c.dids[device]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("heatzy %q: %w", device, provider.ErrDeviceNotFound)
	}
	return did, nil
}

// GetStatus reads the online flag and, for online devices, the current mode.
func (c *Client) GetStatus(ctx context.Context, device string) (models.LiveStatus, error) {
	did, err := c.resolve(ctx, device)
	if err != nil {
		return models.LiveStatus{}, err
	}
	var info struct {
		IsOnline bool `json:"is_online"`
	}
	if err := c.do(ctx, http.MethodGet, "/devices/"+did, nil, &info); err != nil {
		return models.LiveStatus{}, fmt.Errorf("heatzy device %q: %w", device, err)
	}
	if !info.IsOnline {
		return models.LiveStatus{Online: false}, nil
	}
	var data struct {
		Attr struct {
			Mode string `json:"mode"`
		} `json:"attr"`
	}
	if err := c.do(ctx, http.MethodGet, "/devdata/"+did+"/latest", nil, &data); err != nil {
		return models.LiveStatus{}, fmt.Errorf("heatzy devdata %q: %w", device, err)
	}
	return models.LiveStatus{Status: StatusFromVendor(data.Attr.Mode), Online: true}, nil
}

// SetMode sends the numeric mode to the device. A non-empty JSON answer is a rejection.
func (c *Client) SetMode(ctx context.Context, device, mode string) error {
	code, ok := modeCodes[mode]
	if !ok {
		return fmt.Errorf("heatzy mode %q: unsupported", mode)
	}
	did, err := c.resolve(ctx, device)
	if err != nil {
		return err
	}
	var answer map[string]interface{}
	body := map[string]interface{}{"attrs": map[string]int{"mode": code}}
	if err := c.do(ctx, http.MethodPost, "/control/"+did, body, &answer); err != nil {
		return fmt.Errorf("heatzy control %q: %w", device, err)
	}
	if len(answer) > 0 {
		return fmt.Errorf("heatzy control %q: %w: %v", device, provider.ErrRejected, answer)
	}
	c.log.Infow("provider_mode_set", "device", device, "mode", mode, "code", code)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("X-Gizwits-Application-Id", ApplicationID)
	req.Header.Set("X-Gizwits-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if path != "/login" {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token == "" {
			return errNotLoggedIn
		}
		req.Header.Set("X-Gizwits-User-token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
