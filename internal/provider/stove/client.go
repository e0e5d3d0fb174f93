package stove

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/provider"
)

const (
	DefaultBaseURL      = "https://nobis.agua-iot.com"
	DefaultCustomerCode = "700700"
	DefaultBrandID      = "1"

	defaultTimeout      = 15 * time.Second
	defaultPollInterval = time.Second
	defaultPollAttempts = 15
	jobCompleted        = "completed"
)

var (
	errNotLoggedIn = errors.New("stove: not logged in")
	errJobTimeout  = errors.New("stove: job did not complete")
)

var _ provider.Provider = (*Client)(nil)

// Credentials is the JSON document referenced by set_heaters.providers.stove.credentials.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UUID     string `json:"uuid"`
}

func ParseCredentials(raw []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, fmt.Errorf("stove credentials: %w", err)
	}
	if c.Email == "" || c.Password == "" {
		return Credentials{}, errors.New("stove credentials: email and password are required")
	}
	return c, nil
}

type Options struct {
	BaseURL      string
	CustomerCode string
	BrandID      string
	Temperatures Temperatures
	Registers    Registers
	PollInterval time.Duration
	PollAttempts int
}

type device struct {
	ID      int64  `json:"id_device"`
	Product int64  `json:"id_product"`
	Name    string `json:"name"`
	Online  bool   `json:"is_online"`
}

// Client talks to the Agua IoT cloud for one stove account.
type Client struct {
	opts       Options
	creds      Credentials
	httpClient *http.Client
	log        *logger.Logger

	mu      sync.Mutex
	token   string
	devices []device
}

func New(opts Options, creds Credentials, log *logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CustomerCode == "" {
		opts.CustomerCode = DefaultCustomerCode
	}
	if opts.BrandID == "" {
		opts.BrandID = DefaultBrandID
	}
	if opts.Registers == (Registers{}) {
		opts.Registers = DefaultRegisters
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = defaultPollAttempts
	}
	if opts.Temperatures == nil {
		opts.Temperatures = Temperatures{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		opts:       opts,
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.With("provider", models.FamilyStove),
	}
}

func (c *Client) Family() models.Family { return models.FamilyStove }

func (c *Client) Login(ctx context.Context) error {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]interface{}{"email": c.creds.Email, "password": c.creds.Password, "login_type": 1}
	if err := c.do(ctx, http.MethodPost, "/userLogin", body, &out); err != nil {
		return fmt.Errorf("stove login: %w", err)
	}
	if out.Token == "" {
		return errors.New("stove login: empty token")
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	c.log.Debugw("provider_logged_in")
	return nil
}

// ListDevices returns trimmed device names.
func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	var out struct {
		Devices []device `json:"device"`
	}
	if err := c.do(ctx, http.MethodPost, "/deviceList", map[string]string{}, &out); err != nil {
		return nil, fmt.Errorf("stove device list: %w", err)
	}
	names := make([]string, 0, len(out.Devices))
	for i := range out.Devices {
		out.Devices[i].Name = strings.TrimSpace(out.Devices[i].Name)
		names = append(names, out.Devices[i].Name)
	}
	c.mu.Lock()
	c.devices = out.Devices
	c.mu.Unlock()
	return names, nil
}

// lookup finds the device named name, falling back to the first device whose
// name starts with it.
func (c *Client) lookup(ctx context.Context, name string) (device, error) {
	name = strings.TrimSpace(name)
	find := func() (device, bool) {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, d := range c.devices {
			if d.Name == name {
				return d, true
			}
		}
		for _, d := range c.devices {
			if strings.HasPrefix(d.Name, name) {
				return d, true
			}
		}
		return device{}, false
	}
	if d, ok := find(); ok {
		return d, nil
	}
	if _, err := c.ListDevices(ctx); err != nil {
		return device{}, err
	}
	if d, ok := find(); ok {
		return d, nil
	}
	return device{}, fmt.Errorf("stove %q: %w", name, provider.ErrDeviceNotFound)
}

// GetStatus reads the register buffer. A burning stove is reported as the
// heating mode matching its set-point, or ON when none matches.
func (c *Client) GetStatus(ctx context.Context, name string) (models.LiveStatus, error) {
	d, err := c.lookup(ctx, name)
	if err != nil {
		return models.LiveStatus{}, err
	}
	if !d.Online {
		return models.LiveStatus{Online: false}, nil
	}
	values, err := c.readBuffer(ctx, d)
	if err != nil {
		return models.LiveStatus{}, fmt.Errorf("stove %q read: %w", name, err)
	}
	code, ok := values[c.opts.Registers.Status]
	if !ok {
		return models.LiveStatus{}, fmt.Errorf("stove %q: status register %d missing", name, c.opts.Registers.Status)
	}
	status := translateStatus(code)
	if status == StatusOn {
		if sp, ok := values[c.opts.Registers.Temperature]; ok {
			status = c.opts.Temperatures.ModeFor(sp)
		}
	}
	return models.LiveStatus{Status: status, Online: true}, nil
}

// SetMode powers the stove off for OFF; otherwise writes the mode's set-point
// (a failure there is only logged) and powers it on.
func (c *Client) SetMode(ctx context.Context, name, mode string) error {
	if mode != ModeOff && !isHeating(mode) {
		return fmt.Errorf("stove mode %q: unsupported", mode)
	}
	d, err := c.lookup(ctx, name)
	if err != nil {
		return err
	}
	if mode == ModeOff {
		if err := c.write(ctx, d, c.opts.Registers.Power, powerOff); err != nil {
			return fmt.Errorf("stove %q power off: %w", name, err)
		}
		c.log.Infow("provider_mode_set", "device", name, "mode", mode)
		return nil
	}

	if temp, ok := c.opts.Temperatures[mode]; ok {
		if err := c.write(ctx, d, c.opts.Registers.Temperature, temp); err != nil {
			c.log.Errorw("stove_setpoint_failed", "device", name, "mode", mode, "temperature", temp, "err", err)
		}
	} else {
		c.log.Warnw("stove_setpoint_missing", "device", name, "mode", mode)
	}
	if err := c.write(ctx, d, c.opts.Registers.Power, powerOn); err != nil {
		return fmt.Errorf("stove %q power on: %w", name, err)
	}
	c.log.Infow("provider_mode_set", "device", name, "mode", mode)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.token = ""
	c.devices = nil
	c.mu.Unlock()
	return nil
}

type jobRequest struct {
	IDRequest string `json:"idRequest"`
}

type jobStatus struct {
	Status string `json:"jobAnswerStatus"`
	Data   struct {
		Items  []int `json:"Items"`
		Values []int `json:"Values"`
	} `json:"jobAnswerData"`
}

func (c *Client) readBuffer(ctx context.Context, d device) (map[int]int, error) {
	var req jobRequest
	body := map[string]interface{}{"id_device": d.ID, "id_product": d.Product, "BufferId": 1}
	if err := c.do(ctx, http.MethodPost, "/deviceGetBufferReading", body, &req); err != nil {
		return nil, err
	}
	job, err := c.wait(ctx, req.IDRequest)
	if err != nil {
		return nil, err
	}
	values := make(map[int]int, len(job.Data.Items))
	for i, item := range job.Data.Items {
		if i < len(job.Data.Values) {
			values[item] = job.Data.Values[i]
		}
	}
	return values, nil
}

func (c *Client) write(ctx context.Context, d device, register, value int) error {
	var req jobRequest
	body := map[string]interface{}{
		"id_device":  d.ID,
		"id_product": d.Product,
		"Protocol":   "RWMSmaster",
		"BitData":    []int{8},
		"Endianess":  []string{"L"},
		"Items":      []int{register},
		"Masks":      []int{65535},
		"Values":     []int{value},
	}
	if err := c.do(ctx, http.MethodPost, "/deviceRequestWriting", body, &req); err != nil {
		return err
	}
	_, err := c.wait(ctx, req.IDRequest)
	return err
}

// wait polls a job until the controller answers.
func (c *Client) wait(ctx context.Context, id string) (jobStatus, error) {
	if id == "" {
		return jobStatus{}, errors.New("stove: empty job id")
	}
	for attempt := 0; attempt < c.opts.PollAttempts; attempt++ {
		var job jobStatus
		if err := c.do(ctx, http.MethodGet, "/deviceJobStatus/"+id, nil, &job); err != nil {
			return jobStatus{}, err
		}
		if job.Status == jobCompleted {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return jobStatus{}, ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}
	}
	return jobStatus{}, fmt.Errorf("%w: %s", errJobTimeout, id)
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
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "file://")
	req.Header.Set("local", "true")
	req.Header.Set("customer_code", c.opts.CustomerCode)
	req.Header.Set("brand_id", c.opts.BrandID)
	req.Header.Set("id_brand", c.opts.BrandID)
	if c.creds.UUID != "" {
		req.Header.Set("id_app", c.creds.UUID)
	}
	if path != "/userLogin" {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token == "" {
			return errNotLoggedIn
		}
		req.Header.Set("Authorization", token)
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
