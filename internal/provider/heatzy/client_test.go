package heatzy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/provider"
)

// fakeCloud mimics the subset of the Gizwits API the client uses.
type fakeCloud struct {
	mu       sync.Mutex
	online   map[string]bool
	modes    map[string]string // did -> vendor mode
	control  map[string]int    // did -> last control code
	rejectAt string
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		online:  map[string]bool{"did-1": true, "did-2": false},
		modes:   map[string]string{"did-1": "eco", "did-2": "cft"},
		control: map[string]int{},
	}
}

func (f *fakeCloud) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Gizwits-Application-Id") != ApplicationID {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var in Credentials
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_message":"bad password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok"}`))
	})
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Gizwits-User-token") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("/bindings", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"devices":[{"did":"did-1","dev_alias":"lounge"},{"did":"did-2","dev_alias":"bedroom"}]}`))
	}))
	mux.HandleFunc("/devices/", authed(func(w http.ResponseWriter, r *http.Request) {
		did := r.URL.Path[len("/devices/"):]
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]bool{"is_online": f.online[did]})
	}))
	mux.HandleFunc("/devdata/", authed(func(w http.ResponseWriter, r *http.Request) {
		did := r.URL.Path[len("/devdata/") : len(r.URL.Path)-len("/latest")]
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"attr": map[string]string{"mode": f.modes[did]}})
	}))
	mux.HandleFunc("/control/", authed(func(w http.ResponseWriter, r *http.Request) {
		did := r.URL.Path[len("/control/"):]
		var in struct {
			Attrs struct {
				Mode int `json:"mode"`
			} `json:"attrs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode control body: %v", err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if did == f.rejectAt {
			_, _ = w.Write([]byte(`{"error_code":9004,"error_message":"device offline"}`))
			return
		}
		f.control[did] = in.Attrs.Mode
		_, _ = w.Write([]byte(`{}`))
	}))
	return mux
}

func newTestClient(t *testing.T, cloud *fakeCloud) *Client {
	t.Helper()
	srv := httptest.NewServer(cloud.handler(t))
	t.Cleanup(srv.Close)
	c := New(srv.URL, Credentials{Username: "me", Password: "secret"}, logger.Nop())
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return c
}

func TestClient_StatusAndListing(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, newFakeCloud())
	ctx := context.Background()

	names, err := c.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(names) != 2 || names[0] != "lounge" || names[1] != "bedroom" {
		t.Fatalf("names: %v", names)
	}

	st, err := c.GetStatus(ctx, "lounge")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.Online || st.Status != ModeEco {
		t.Fatalf("lounge: %+v", st)
	}

	st, err = c.GetStatus(ctx, "bedroom")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Online {
		t.Fatalf("bedroom should be offline: %+v", st)
	}

	if _, err := c.GetStatus(ctx, "attic"); !errors.Is(err, provider.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestClient_SetMode(t *testing.T) {
	t.Parallel()

	cloud := newFakeCloud()
	c := newTestClient(t, cloud)
	ctx := context.Background()

	if err := c.SetMode(ctx, "lounge", ModeFrost); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	cloud.mu.Lock()
	got := cloud.control["did-1"]
	cloud.mu.Unlock()
	if got != 2 {
		t.Fatalf("control code: got %d want 2", got)
	}

	cloud.mu.Lock()
	cloud.rejectAt = "did-1"
	cloud.mu.Unlock()
	if err := c.SetMode(ctx, "lounge", ModeEco); !errors.Is(err, provider.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}

	if err := c.SetMode(ctx, "lounge", "TURBO"); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}

func TestClient_LoginFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeCloud().handler(t))
	defer srv.Close()

	c := New(srv.URL, Credentials{Username: "me", Password: "wrong"}, logger.Nop())
	if err := c.Login(context.Background()); err == nil {
		t.Fatalf("expected login error")
	}
	if _, err := c.ListDevices(context.Background()); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected errNotLoggedIn, got %v", err)
	}
}

func TestStatusFromVendor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{"cft": "COMFORT", "eco": "ECO", "fro": "HGEL", "stop": "OFF", "off": "OFF", "boost": "boost"}
	for in, want := range cases {
		if got := StatusFromVendor(in); got != want {
			t.Errorf("StatusFromVendor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	if Policy(false).Override != nil {
		t.Fatalf("no override expected outside red window")
	}
	p := Policy(true)
	if p.Override == nil {
		t.Fatalf("override expected in red window")
	}
	if m, ok := p.Override(ModeComfort); !ok || m != ModeFrost {
		t.Fatalf("override: %q %v", m, ok)
	}
}

func TestParseCredentials(t *testing.T) {
	t.Parallel()

	if _, err := ParseCredentials([]byte(`{"username":"a","password":"b"}`)); err != nil {
		t.Fatalf("ParseCredentials: %v", err)
	}
	for _, raw := range []string{`{`, `{"username":"a"}`} {
		if _, err := ParseCredentials([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}
