package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		Host:       srv.URL,
		Username:   "reader",
		Password:   "secret",
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestNewClientBaseURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"platform.example.com", "https://platform.example.com/api/v3"},
		{"http://platform.example.com/", "http://platform.example.com/api/v3"},
		{"https://10.0.0.5", "https://10.0.0.5/api/v3"},
	}

	for _, tt := range tests {
		client, err := NewClient(ClientConfig{Host: tt.host})
		if err != nil {
			t.Fatalf("NewClient(%q): %v", tt.host, err)
		}
		if client.baseURL != tt.want {
			t.Errorf("baseURL for %q = %q, want %q", tt.host, client.baseURL, tt.want)
		}
	}

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("NewClient with empty host should fail")
	}
}

func TestSearchSingleEntity(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/search/uuid-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "reader" || pass != "secret" {
			t.Error("missing or wrong basic auth")
		}
		json.NewEncoder(w).Encode(map[string]any{"uuid": "uuid-1", "displayName": "C1"})
	}))

	recs, err := client.Search(context.Background(), SearchRequest{UUID: "uuid-1"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 1 || recs[0]["displayName"] != "C1" {
		t.Errorf("recs = %v", recs)
	}
}

func TestSearchQueryParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "prod" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("types") != "Cluster,Group" {
			t.Errorf("types = %q", q.Get("types"))
		}
		json.NewEncoder(w).Encode([]map[string]any{{"uuid": "g1"}})
	}))

	recs, err := client.Search(context.Background(), SearchRequest{
		Query: "prod",
		Types: []string{"Cluster", "Group"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d records, want 1", len(recs))
	}
}

func TestPagerFollowsCursor(t *testing.T) {
	var cursors []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)

		switch cursor {
		case "":
			w.Header().Set("X-Next-Cursor", "page2")
			json.NewEncoder(w).Encode([]map[string]any{{"uuid": "t1"}, {"uuid": "t2"}})
		case "page2":
			json.NewEncoder(w).Encode([]map[string]any{{"uuid": "t3"}})
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))

	pager := client.GetTargets(context.Background(), nil)
	recs, err := Collect(context.Background(), pager)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if len(recs) != 3 {
		t.Errorf("got %d records, want 3", len(recs))
	}
	if len(cursors) != 2 || cursors[1] != "page2" {
		t.Errorf("cursors = %v, want two pages", cursors)
	}
	if !pager.Complete() {
		t.Error("pager should be complete after the final page")
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "no such group", http.StatusNotFound)
	}))

	_, err := client.GetGroup(context.Background(), "missing")

	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if serr.Code != http.StatusNotFound || !serr.IsClientError() {
		t.Errorf("status error = %+v", serr)
	}
	if requests != 1 {
		t.Errorf("made %d requests, want 1 (4xx is permanent)", requests)
	}
}

func TestServerErrorRetried(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, "gateway restarting", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"uuid": "Market"})
	}))

	rec, err := client.GetMarket(context.Background(), "Market")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if rec["uuid"] != "Market" {
		t.Errorf("rec = %v", rec)
	}
	if requests != 2 {
		t.Errorf("made %d requests, want 2 (5xx retried once)", requests)
	}
}

func TestStatsRequestBody(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/stats" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))

	pager := client.GetEntityStats(context.Background(), StatsRequest{
		Scope:       []string{"g1"},
		Stats:       []string{"CPU", "Mem"},
		RelatedType: "PhysicalMachine",
	})
	if _, err := Collect(context.Background(), pager); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if body["relatedType"] != "PhysicalMachine" {
		t.Errorf("relatedType = %v", body["relatedType"])
	}
	scopes, _ := body["scopes"].([]any)
	if len(scopes) != 1 || scopes[0] != "g1" {
		t.Errorf("scopes = %v", body["scopes"])
	}
	period, _ := body["period"].(map[string]any)
	stats, _ := period["statistics"].([]any)
	if len(stats) != 2 {
		t.Errorf("statistics = %v", period)
	}
}

func TestGetTemplateByName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"displayName": "other template"},
			{"displayName": "vc1::AVG:C1 for last 10 days", "uuid": "tpl-1"},
		})
	}))

	tpl, err := client.GetTemplateByName(context.Background(), "vc1::AVG:C1 for last 10 days")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if tpl == nil || tpl["uuid"] != "tpl-1" {
		t.Errorf("tpl = %v", tpl)
	}

	missing, err := client.GetTemplateByName(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if missing != nil {
		t.Errorf("missing template = %v, want nil", missing)
	}
}

func TestActionsEndpoints(t *testing.T) {
	var paths []string
	var methods []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		methods = append(methods, r.Method)
		json.NewEncoder(w).Encode([]map[string]any{})
	}))

	ctx := context.Background()
	Collect(ctx, client.GetActions(ctx, ActionsRequest{}))
	Collect(ctx, client.GetGroupActions(ctx, ActionsRequest{UUID: "g1"}))
	Collect(ctx, client.GetEntityActions(ctx, ActionsRequest{
		UUID: "e1",
		Body: map[string]any{"actionStateList": []string{"READY"}},
	}))

	wantPaths := []string{
		"/api/v3/markets/Market/actions",
		"/api/v3/groups/g1/actions",
		"/api/v3/entities/e1/actions",
	}
	for i, want := range wantPaths {
		if paths[i] != want {
			t.Errorf("path[%d] = %s, want %s", i, paths[i], want)
		}
	}
	if methods[2] != http.MethodPost {
		t.Errorf("filtered actions request method = %s, want POST", methods[2])
	}
}
