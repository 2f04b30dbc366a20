//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/internal/httpapi"
	"github.com/MrEthical07/storefront/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

const adminPassword = "correct-password-123"

// fakeWordPress serves the REST user routes and the GraphQL endpoint.
type fakeWordPress struct {
	mu      sync.Mutex
	roles   map[int64][]string
	created []string

	userFetches  atomic.Int64
	graphqlCalls atomic.Int64
}

func newFakeWordPress() *fakeWordPress {
	return &fakeWordPress{roles: map[int64][]string{1: {"administrator"}}}
}

func (wp *fakeWordPress) setRoles(id int64, roles ...string) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.roles[id] = roles
}

func (wp *fakeWordPress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if user, pass, ok := r.BasicAuth(); !ok || user != "wp-bot" || pass != "app-pass" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/wp-json/wp/v2/users/1":
		wp.userFetches.Add(1)
		wp.mu.Lock()
		roles := wp.roles[1]
		wp.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "username": "shopadmin", "name": "Shop Admin", "email": "admin@shop.example",
			"roles": roles, "avatar_urls": map[string]string{"96": "https://gravatar.example/96"},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/wp-json/wp/v2/users/"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"rest_user_invalid_id","message":"Invalid user ID."}`)
	case r.Method == http.MethodPost && r.URL.Path == "/wp-json/wp/v2/users":
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		wp.mu.Lock()
		defer wp.mu.Unlock()
		for _, name := range wp.created {
			if name == body.Username {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"code":"existing_user_login","message":"Sorry, that username already exists!"}`)
				return
			}
		}
		wp.created = append(wp.created, body.Username)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 100 + len(wp.created), "username": body.Username, "email": body.Email,
			"name": body.Username, "roles": []string{"subscriber"},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/graphql":
		wp.graphqlCalls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		if strings.Contains(string(raw), "GetPosts") {
			_, _ = io.WriteString(w, `{"data":{"posts":{"pageInfo":{"hasNextPage":false,"endCursor":""},"nodes":[`+
				`{"id":"cG9zdDox","title":"Hello","slug":"hello","excerpt":"<p>Hi</p>","content":"<p>Body</p>","date":"2024-03-05T10:00:00",`+
				`"categories":{"nodes":[{"id":"c1","name":"News","slug":"news"}]},"tags":{"nodes":[]},"featuredImage":null}]}}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"echo":true}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// fakeShopify answers the Storefront API product and cart mutations.
type fakeShopify struct {
	productCalls atomic.Int64
}

func (s *fakeShopify) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Shopify-Storefront-Access-Token") != "storefront-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.Contains(string(raw), "cartCreate"):
		_, _ = io.WriteString(w, `{"data":{"cartCreate":{"cart":{"id":"gid://shopify/Cart/1","checkoutUrl":"https://shop.example/checkouts/1"},"userErrors":[]}}}`)
	case strings.Contains(string(raw), "products("):
		s.productCalls.Add(1)
		_, _ = io.WriteString(w, `{"data":{"products":{"pageInfo":{"hasNextPage":false,"endCursor":"c1"},"edges":[{"node":`+
			`{"id":"gid://shopify/Product/1","title":"Mug","description":"Stoneware","handle":"mug","productType":"Kitchen","tags":["ceramic"],`+
			`"priceRange":{"minVariantPrice":{"amount":"12.5","currencyCode":"USD"}},"images":{"edges":[]},`+
			`"variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/11","title":"Default","availableForSale":true}}]}}}]}}}`)
	default:
		_, _ = io.WriteString(w, `{"data":{}}`)
	}
}

type stack struct {
	server *httptest.Server
	client *http.Client
	engine *storefront.Engine
	wp     *fakeWordPress
	shop   *fakeShopify
	redis  *miniredis.Miniredis
}

// newStack wires real commerce and CMS clients to fake upstreams and serves
// the API router over a real listener.
func newStack(t *testing.T) *stack {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	wp := newFakeWordPress()
	wpSrv := httptest.NewServer(wp)
	shop := &fakeShopify{}
	shopSrv := httptest.NewServer(shop)

	cfg := storefront.DefaultConfig()
	cfg.Password = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.Session.SecureCookies = false
	cfg.Commerce.StoreDomain = "shop.example"
	cfg.Commerce.StorefrontToken = "storefront-token"
	cfg.Commerce.Endpoint = shopSrv.URL
	cfg.CMS.User = "wp-bot"
	cfg.CMS.AppPassword = "app-pass"
	cfg.CMS.RESTEndpoint = wpSrv.URL + "/wp-json"
	cfg.CMS.GraphQLEndpoint = wpSrv.URL + "/graphql"

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	engine, err := storefront.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(zaptest.NewLogger(t)).
		WithCredentials([]password.Credential{
			{ID: 1, Username: "shopadmin", Email: "admin@shop.example", Name: "Shop Admin", Roles: []string{"administrator"}, Hash: hash},
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	router := httpapi.NewRouter(engine, zaptest.NewLogger(t), httpapi.Options{})
	srv := httptest.NewServer(router)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	t.Cleanup(func() {
		srv.Close()
		engine.Close()
		shopSrv.Close()
		wpSrv.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &stack{
		server: srv,
		client: &http.Client{Jar: jar},
		engine: engine,
		wp:     wp,
		shop:   shop,
		redis:  mr,
	}
}

func (s *stack) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v (%s)", path, err, raw)
		}
	}
	return resp.StatusCode, out
}
