package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeElastic answers just enough of the REST API for the client wrapper.
func fakeElastic(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestSearchDecodesHits(t *testing.T) {
	var gotBody map[string]interface{}
	c := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/products/_search") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"p1","_source":{"id":"p1","name":"Mug"}}]}}`))
	})

	res, err := c.Search(context.Background(), "products", map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Hits.Total.Value != 1 || len(res.Hits.Hits) != 1 || res.Hits.Hits[0].ID != "p1" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if _, ok := gotBody["query"]; !ok {
		t.Fatalf("query body not forwarded: %v", gotBody)
	}
}

func TestDeleteIgnoresNotFound(t *testing.T) {
	c := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	if err := c.Delete(context.Background(), "products", "missing"); err != nil {
		t.Fatalf("delete should tolerate 404: %v", err)
	}
}

func TestIndexReportsServerError(t *testing.T) {
	c := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	if err := c.Index(context.Background(), "products", "p1", map[string]string{"name": "Mug"}); err == nil {
		t.Fatalf("expected error on 400")
	}
}
