package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Token: "test-token"})
}

func TestClient_ListWorksheets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sources/src-1/worksheets" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Write([]byte(`{"worksheets":[{"title":"Sheet1"},{"title":"Responses"}]}`))
	})

	names, err := client.ListWorksheets(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "Sheet1" || names[1] != "Responses" {
		t.Errorf("unexpected worksheets: %v", names)
	}
}

func TestClient_GetHeaderAndRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sources/src-1/worksheets/Sheet1/header":
			w.Write([]byte(`{"values":[["Name","Email"]]}`))
		case "/v1/sources/src-1/worksheets/Sheet1/rows":
			w.Write([]byte(`{"values":[["alice","a@x.io"],["bob","b@x.io"]]}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	headers, err := client.GetHeader(ctx, "src-1", "Sheet1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headers) != 2 || headers[0] != "Name" {
		t.Errorf("unexpected headers: %v", headers)
	}

	rows, err := client.GetRows(ctx, "src-1", "Sheet1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "bob" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestClient_NotFound_IsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such source", http.StatusNotFound)
	})

	_, err := client.ListWorksheets(context.Background(), "gone")
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
	if !domain.IsPermanent(err) {
		t.Error("expected a permanent classification")
	}

	_, err = client.GetRows(context.Background(), "src-1", "gone")
	if !errors.Is(err, domain.ErrWorksheetNotFound) {
		t.Errorf("expected ErrWorksheetNotFound, got %v", err)
	}
}

func TestClient_Forbidden_IsAccessRevoked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "revoked", http.StatusForbidden)
	})

	_, err := client.ListWorksheets(context.Background(), "src-1")
	if !errors.Is(err, domain.ErrAccessRevoked) {
		t.Errorf("expected ErrAccessRevoked, got %v", err)
	}
	if !domain.IsPermanent(err) {
		t.Error("expected a permanent classification")
	}
}

func TestClient_ServerError_IsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetRows(context.Background(), "src-1", "Sheet1")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if !domain.IsTransient(err) {
		t.Error("expected a transient classification")
	}
}

func TestClient_RateLimited_IsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})

	_, err := client.GetHeader(context.Background(), "src-1", "Sheet1")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestClient_ConnectionRefused_IsTransient(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := client.ListWorksheets(context.Background(), "src-1")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
