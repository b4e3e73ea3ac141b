package thingspeak

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(types.ThingSpeakConfig{}, zap.NewNop().Sugar()); err == nil {
		t.Error("publisher without an api-key expected error")
	}
}

func TestUploadFieldMapping(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got, _ = url.ParseQuery(string(body))
		w.Write([]byte("12345"))
	}))
	defer srv.Close()

	p, err := New(types.ThingSpeakConfig{APIKey: "KEY", APIEndpoint: srv.URL}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}

	latest := map[string]types.Update{
		types.ChannelLight: {Snapshot: types.Snapshot{Channel: "light", Seeded: true, Filtered: 1500.5}},
		types.ChannelRain:  {Snapshot: types.Snapshot{Channel: "rain", Seeded: true, Filtered: 180}},
		types.ChannelWater: {Snapshot: types.Snapshot{Channel: "water", Seeded: true, Filtered: 42, Trend: -2.5, Status: "pumping"}},
		types.ChannelRSSI:  {Snapshot: types.Snapshot{Channel: "rssi", Seeded: true, Filtered: -57}},
	}
	if err := p.upload(context.Background(), latest); err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"api_key": "KEY",
		"field1":  "1500.50",
		"field2":  "180.00",
		"field3":  "42.00",
		"field4":  "-2.50",
		"field5":  "-57.00",
		"status":  "pumping",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Errorf("form field %s = %q, want %q", k, got.Get(k), v)
		}
	}
}

func TestUploadSkipsUnseededChannels(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got, _ = url.ParseQuery(string(body))
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	p, err := New(types.ThingSpeakConfig{APIKey: "KEY", APIEndpoint: srv.URL}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}

	latest := map[string]types.Update{
		types.ChannelLight: {Snapshot: types.Snapshot{Channel: "light", Seeded: true, Filtered: 900}},
		types.ChannelWater: {Snapshot: types.Snapshot{Channel: "water"}}, // unseeded
	}
	if err := p.upload(context.Background(), latest); err != nil {
		t.Fatal(err)
	}

	if got.Get("field1") == "" {
		t.Error("seeded light channel missing from upload")
	}
	if _, present := got["field3"]; present {
		t.Error("unseeded water channel uploaded")
	}
}

func TestUploadRejectedUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0")) // rate limited
	}))
	defer srv.Close()

	p, err := New(types.ThingSpeakConfig{APIKey: "KEY", APIEndpoint: srv.URL}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}

	latest := map[string]types.Update{
		types.ChannelLight: {Snapshot: types.Snapshot{Channel: "light", Seeded: true, Filtered: 1}},
	}
	if err := p.upload(context.Background(), latest); err == nil {
		t.Error("rejected update expected error")
	}
}
