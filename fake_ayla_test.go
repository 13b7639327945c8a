package oekoboiler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testEmail    = "user@example.com"
	testPassword = "hunter2"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedDatapoint struct {
	Key   int
	Value any
}

// fakeAyla emulates the Ayla user and device services.
// User endpoints live under /users, device endpoints under /apiv1.
type fakeAyla struct {
	t      *testing.T
	server *httptest.Server

	signIns   atomic.Int32
	refreshes atomic.Int32
	apiCalls  atomic.Int32
	tokenSeq  atomic.Int32

	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	expiresIn     int
	signInStatus  int
	refreshStatus int
	signInDelay   time.Duration
	refreshDelay  time.Duration
	lastSignIn    map[string]any
	lastRefresh   map[string]any
	lastRefreshAu string
	devices       []Device
	properties    map[string][]DeviceProperty
	datapoints    []recordedDatapoint
}

func newFakeAyla(t *testing.T) *fakeAyla {
	t.Helper()

	f := &fakeAyla{
		t:          t,
		expiresIn:  86400,
		properties: make(map[string][]DeviceProperty),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/sign_in.json", f.handleSignIn)
	mux.HandleFunc("POST /users/refresh_token.json", f.handleRefresh)
	mux.HandleFunc("GET /apiv1/devices", f.authorized(f.handleDevices))
	mux.HandleFunc("GET /apiv1/dsns/{dsn}/properties", f.authorized(f.handleProperties))
	mux.HandleFunc("POST /apiv1/properties/{key}/datapoints", f.authorized(f.handleDatapoint))

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// client builds a Client pointed at the fake services.
func (f *fakeAyla) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{
		WithBaseURL(f.server.URL + "/apiv1"),
		WithUserBaseURL(f.server.URL + "/users"),
	}, opts...)
	c, err := NewClient(testEmail, testPassword, all...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func (f *fakeAyla) issue(w http.ResponseWriter) {
	n := f.tokenSeq.Add(1)

	f.mu.Lock()
	f.accessToken = fmt.Sprintf("access-%d", n)
	f.refreshToken = fmt.Sprintf("refresh-%d", n)
	resp := map[string]any{
		"access_token":  f.accessToken,
		"refresh_token": f.refreshToken,
		"expires_in":    f.expiresIn,
		"role":          "EndUser",
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeAyla) handleSignIn(w http.ResponseWriter, r *http.Request) {
	f.signIns.Add(1)

	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.lastSignIn = body
	status := f.signInStatus
	delay := f.signInDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": "Your email or password is incorrect."})
		return
	}
	f.issue(w)
}

func (f *fakeAyla) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.refreshes.Add(1)

	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.lastRefresh = body
	f.lastRefreshAu = r.Header.Get("Authorization")
	status := f.refreshStatus
	delay := f.refreshDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid refresh token"})
		return
	}
	f.issue(w)
}

func (f *fakeAyla) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.apiCalls.Add(1)

		f.mu.Lock()
		want := "auth_token " + f.accessToken
		f.mu.Unlock()

		if want == "auth_token " || r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Your access token is invalid"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAyla) handleDevices(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	devices := f.devices
	f.mu.Unlock()
	if devices == nil {
		devices = []Device{}
	}
	json.NewEncoder(w).Encode(devices)
}

func (f *fakeAyla) handleProperties(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	props, ok := f.properties[r.PathValue("dsn")]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Device not found"})
		return
	}
	json.NewEncoder(w).Encode(props)
}

func (f *fakeAyla) handleDatapoint(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.Atoi(r.PathValue("key"))
	if err != nil || key <= 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body datapointEnvelope
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	f.mu.Lock()
	f.datapoints = append(f.datapoints, recordedDatapoint{Key: key, Value: body.Datapoint.Value})
	f.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(body)
}

// update mutates the fake's configuration under its lock.
func (f *fakeAyla) update(fn func(f *fakeAyla)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAyla) setProperties(dsn string, props []DeviceProperty) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.properties[dsn] = props
}

func (f *fakeAyla) recorded() []recordedDatapoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedDatapoint(nil), f.datapoints...)
}

func prop(name string, key int, value any) DeviceProperty {
	return DeviceProperty{Property: Property{
		Name:      name,
		Key:       key,
		Value:     value,
		BaseType:  BaseTypeInteger,
		Direction: DirectionInput,
	}}
}

// boilerProperties is a realistic property list for one Oekoboiler.
func boilerProperties() []DeviceProperty {
	return []DeviceProperty{
		prop(PropBoilerOn, 1001, 1),
		prop(PropAlarm, 1002, "E0"),
		prop(PropSetWaterTemp, 1003, 55),
		prop(PropTemperatureDelta, 1004, 5),
		prop(PropCurrentWaterTemp, 1005, 45),
		prop(PropPVFunction, 1006, 0),
		prop(PropVersion, 1007, "1.2.3"),
		prop("F1", 1008, 20),
	}
}
