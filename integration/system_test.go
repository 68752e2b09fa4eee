//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E_Catalog(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	doJSON(t, http.MethodPost, baseURL+"/session", map[string]any{
		"username": getenv("E2E_LOGIN_USER", "1234"),
		"password": getenv("E2E_LOGIN_PASSWORD", "password"),
	}, &loginResp, 200)
	if loginResp.AccessToken == "" {
		t.Fatalf("empty access_token")
	}

	var books []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/books", nil, &books, 200)
	if len(books) == 0 {
		t.Fatalf("expected at least the seed book")
	}

	title := fmt.Sprintf("e2e_%d_%d", time.Now().Unix(), rand.Intn(100000))
	var created map[string]any
	doJSON(t, http.MethodPost, baseURL+"/books", map[string]any{
		"title":  title,
		"author": "E2E",
		"year":   "2024",
	}, &created, 201)

	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("book id missing: %#v", created)
	}

	doJSON(t, http.MethodPut, baseURL+"/books/"+id+"/cover-size", map[string]any{"size": "M"}, nil, 200)

	var got map[string]any
	doJSON(t, http.MethodGet, baseURL+"/books/"+id, nil, &got, 200)
	if got["cover_size"] != "M" {
		t.Fatalf("cover_size=%v", got["cover_size"])
	}

	if os.Getenv("E2E_RESTART") == "1" {
		restartBookshelfContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
		doJSON(t, http.MethodGet, baseURL+"/books/"+id, nil, &got, 200)
		if got["title"] != title {
			t.Fatalf("book lost across restart: %#v", got)
		}
	}

	doJSON(t, http.MethodDelete, baseURL+"/books/"+id, nil, nil, 204)
	doJSON(t, http.MethodGet, baseURL+"/books/"+id, nil, nil, 404)
}

func TestSystem_E2E_Search(t *testing.T) {
	if os.Getenv("E2E_OPENLIBRARY") != "1" {
		t.Skip("set E2E_OPENLIBRARY=1 to hit the live Open Library API")
	}
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var res struct {
		Count   int `json:"count"`
		Results []struct {
			Candidate map[string]any `json:"candidate"`
			CoverURL  string         `json:"cover_url"`
		} `json:"results"`
	}
	doJSON(t, http.MethodGet, baseURL+"/search?title="+url.QueryEscape("the lord of the rings"), nil, &res, 200)
	if res.Count == 0 || len(res.Results) != res.Count {
		t.Fatalf("unexpected search result: count=%d len=%d", res.Count, len(res.Results))
	}
	if res.Results[0].CoverURL == "" {
		t.Fatalf("cover_url missing")
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
