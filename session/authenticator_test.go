package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/storefront/jwt"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeDirectory struct {
	user  *User
	err   error
	calls int
	block bool
}

func (d *fakeDirectory) FetchUser(ctx context.Context, id int64) (*User, error) {
	d.calls++
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.err != nil {
		return nil, d.err
	}
	u := *d.user
	return &u, nil
}

type fakeVerifier struct {
	claims *jwt.Claims
	err    error
}

func (v fakeVerifier) Verify(string) (*jwt.Claims, error) { return v.claims, v.err }

func snapshot(t *testing.T, u User) string {
	t.Helper()
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func freshUser() User {
	return User{ID: 7, Username: "marie", Email: "m@example.com", Name: "Marie", Roles: []string{"subscriber"}}.Stamp(testNow.Add(-time.Hour))
}

func opaqueJar(t *testing.T, username string, issued time.Time, u *User) *MemoryJar {
	t.Helper()
	values := map[string]string{CookieToken: EncodeOpaque(username, issued)}
	if u != nil {
		values[CookieUser] = snapshot(t, *u)
	}
	return NewMemoryJar(values)
}

func newAuth(opts ...Option) *Authenticator {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewAuthenticator(opts...)
}

func assertCleared(t *testing.T, jar *MemoryJar) {
	t.Helper()
	if _, ok := jar.Get(CookieToken); ok {
		t.Fatal("auth-token not cleared")
	}
	if _, ok := jar.Get(CookieUser); ok {
		t.Fatal("user-data not cleared")
	}
}

func TestAuthenticateWithoutCookie(t *testing.T) {
	res := newAuth().Authenticate(context.Background(), NewMemoryJar(nil))
	if res.Success || res.Message != MsgNotAuthenticated {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestOpaqueSessionReturnsCachedSnapshot(t *testing.T) {
	u := freshUser()
	dir := &fakeDirectory{user: &u}
	jar := opaqueJar(t, "marie", testNow.Add(-time.Hour), &u)

	res := newAuth(WithDirectory(dir)).Authenticate(context.Background(), jar)
	if !res.Success || res.TokenType != TokenTypeSession {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.User.Username != "marie" || res.User.ID != 7 {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if dir.calls != 0 {
		t.Fatalf("fresh snapshot must not hit directory, got %d calls", dir.calls)
	}
}

func TestOpaqueTokenOlderThanMaxAgeRejected(t *testing.T) {
	u := freshUser()
	for _, age := range []time.Duration{MaxSessionAge + time.Millisecond, 30 * 24 * time.Hour} {
		jar := opaqueJar(t, "marie", testNow.Add(-age), &u)
		res := newAuth().Authenticate(context.Background(), jar)
		if res.Success || res.Message != MsgExpired {
			t.Fatalf("age %s: unexpected result %+v", age, res)
		}
		assertCleared(t, jar)
	}
}

func TestOpaqueUsernameMismatchRejected(t *testing.T) {
	u := freshUser()
	jar := opaqueJar(t, "mallory", testNow.Add(-time.Minute), &u)

	res := newAuth().Authenticate(context.Background(), jar)
	if res.Success || res.Message != MsgMismatch {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertCleared(t, jar)
}

func TestOpaqueRejections(t *testing.T) {
	tests := []struct {
		name string
		jar  func(t *testing.T) *MemoryJar
		want string
	}{
		{
			name: "malformed token",
			jar: func(t *testing.T) *MemoryJar {
				return NewMemoryJar(map[string]string{CookieToken: "not-base64!"})
			},
			want: MsgInvalidFormat,
		},
		{
			name: "missing snapshot",
			jar: func(t *testing.T) *MemoryJar {
				return opaqueJar(t, "marie", testNow, nil)
			},
			want: MsgDataMissing,
		},
		{
			name: "unparseable snapshot",
			jar: func(t *testing.T) *MemoryJar {
				jar := opaqueJar(t, "marie", testNow, nil)
				jar.Set(CookieUser, "{not json", CookieOptions{})
				return jar
			},
			want: MsgDataInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := tt.jar(t)
			res := newAuth().Authenticate(context.Background(), jar)
			if res.Success || res.Message != tt.want {
				t.Fatalf("got %+v, want message %q", res, tt.want)
			}
			assertCleared(t, jar)
		})
	}
}

func TestStaleSnapshotRefreshed(t *testing.T) {
	cached := User{ID: 7, Username: "marie", Name: "Old"}
	avatar := "https://example.com/a96.png"
	dir := &fakeDirectory{user: &User{ID: 7, Username: "marie", Name: "Marie Curie", Avatar: &avatar}}
	jar := opaqueJar(t, "marie", testNow.Add(-time.Hour), &cached)

	res := newAuth(WithDirectory(dir)).Authenticate(context.Background(), jar)
	if !res.Success || !res.Refreshed {
		t.Fatalf("expected refreshed success, got %+v", res)
	}
	if res.User.Name != "Marie Curie" || res.User.Avatar == nil {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	raw, _ := jar.Get(CookieUser)
	written, err := decodeUser(raw)
	if err != nil {
		t.Fatalf("decode written snapshot: %v", err)
	}
	last, ok := written.LastValidatedAt()
	if !ok || !last.Equal(testNow) {
		t.Fatalf("expected lastValidated %s, got %v", testNow, written.LastValidated)
	}
}

func TestExpiredSnapshotStampRefreshed(t *testing.T) {
	cached := User{ID: 7, Username: "marie"}.Stamp(testNow.Add(-SnapshotTTL - time.Minute))
	dir := &fakeDirectory{user: &User{ID: 7, Username: "marie"}}
	jar := opaqueJar(t, "marie", testNow.Add(-time.Hour), &cached)

	res := newAuth(WithDirectory(dir)).Authenticate(context.Background(), jar)
	if !res.Success || dir.calls != 1 {
		t.Fatalf("expected one refresh, got %d calls (%+v)", dir.calls, res)
	}
}

func TestRefreshFailureFallsBackToSnapshot(t *testing.T) {
	cached := User{ID: 7, Username: "marie", Name: "Cached"}
	dir := &fakeDirectory{err: errors.New("upstream 500")}
	jar := opaqueJar(t, "marie", testNow.Add(-time.Hour), &cached)

	res := newAuth(WithDirectory(dir)).Authenticate(context.Background(), jar)
	if !res.Success || res.Refreshed || res.RefreshErr == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.User.Name != "Cached" {
		t.Fatalf("expected cached user, got %+v", res.User)
	}
	if _, ok := jar.Get(CookieToken); !ok {
		t.Fatal("refresh failure must not clear cookies")
	}
}

func TestRefreshBoundedByTimeout(t *testing.T) {
	cached := User{ID: 7, Username: "marie"}
	dir := &fakeDirectory{block: true}
	jar := opaqueJar(t, "marie", testNow.Add(-time.Hour), &cached)

	res := newAuth(WithDirectory(dir), WithRefreshTimeout(10*time.Millisecond)).Authenticate(context.Background(), jar)
	if !res.Success || !errors.Is(res.RefreshErr, context.DeadlineExceeded) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSignedFormatMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"expired", jwt.ErrExpired, MsgExpired},
		{"invalid", jwt.ErrInvalid, MsgInvalidSigned},
		{"unclassified", errors.New("token used before issued"), MsgValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := NewMemoryJar(map[string]string{CookieToken: "h.p.s", CookieUser: "{}"})
			res := newAuth(WithVerifier(fakeVerifier{err: tt.err})).Authenticate(context.Background(), jar)
			if res.Success || res.Message != tt.want {
				t.Fatalf("got %+v, want %q", res, tt.want)
			}
			assertCleared(t, jar)
		})
	}
}

func TestSignedTokenWithManager(t *testing.T) {
	m, err := jwt.NewManager(jwt.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Issue(jwt.Identity{ID: 3, Username: "admin", Roles: []string{"administrator"}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	auth := NewAuthenticator(WithVerifier(m))
	jar := NewMemoryJar(nil)
	auth.IssueSigned(jar, token)

	res := auth.Authenticate(context.Background(), jar)
	if !res.Success || res.TokenType != TokenTypeJWT {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.User.HasRole("administrator") || res.User.Avatar != nil {
		t.Fatalf("unexpected user: %+v", res.User)
	}
}

type panickingDirectory struct{}

func (panickingDirectory) FetchUser(context.Context, int64) (*User, error) { panic("boom") }

func TestInternalFailureClearsCookies(t *testing.T) {
	cached := User{ID: 7, Username: "marie"}
	jar := opaqueJar(t, "marie", testNow, &cached)

	res := newAuth(WithDirectory(panickingDirectory{})).Authenticate(context.Background(), jar)
	if res.Success || res.Message != MsgValidationFailed || res.Err == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertCleared(t, jar)
}

func TestIssueThenAuthenticate(t *testing.T) {
	auth := newAuth()
	jar := NewMemoryJar(nil)
	u := User{ID: 9, Username: "shopper", Email: "s@example.com", Name: "Shopper", Roles: []string{"subscriber"}}

	if _, err := auth.Issue(jar, u); err != nil {
		t.Fatalf("issue: %v", err)
	}
	res := auth.Authenticate(context.Background(), jar)
	if !res.Success || res.User.Username != "shopper" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.User.LastValidated != nil {
		t.Fatal("login snapshot must not carry a validation stamp")
	}

	auth.Clear(jar)
	assertCleared(t, jar)
}

func TestHTTPCookieJarRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	jar := NewHTTPCookieJar(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	u := User{ID: 1, Username: "a b", Name: `Quote "q"`}
	NewAuthenticator().writeSnapshot(jar, u)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieUser || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	raw, ok := NewHTTPCookieJar(httptest.NewRecorder(), req).Get(CookieUser)
	if !ok {
		t.Fatal("cookie not readable")
	}
	got, err := decodeUser(raw)
	if err != nil || got.Name != u.Name || got.Username != u.Username {
		t.Fatalf("round trip mismatch: %+v (%v)", got, err)
	}
}

func TestHTTPCookieJarKeepsPlusSigns(t *testing.T) {
	rec := httptest.NewRecorder()
	jar := NewHTTPCookieJar(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	u := User{ID: 7, Username: "shopper", Email: "shopper+orders@example.com", Name: "A B"}
	NewAuthenticator().writeSnapshot(jar, u)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	raw, ok := NewHTTPCookieJar(httptest.NewRecorder(), req).Get(CookieUser)
	if !ok {
		t.Fatal("cookie not readable")
	}
	got, err := decodeUser(raw)
	if err != nil || got.Email != u.Email || got.Name != u.Name {
		t.Fatalf("round trip mismatch: %+v (%v)", got, err)
	}

	// A value percent-encoded by another client leaves '+' unescaped.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieUser, Value: `%7B%22id%22%3A7%2C%22email%22%3A%22a+b%40example.com%22%7D`})
	raw, _ = NewHTTPCookieJar(httptest.NewRecorder(), req).Get(CookieUser)
	got, err = decodeUser(raw)
	if err != nil || got.Email != "a+b@example.com" {
		t.Fatalf("expected plus sign preserved, got %+v (%v)", got, err)
	}
}

func TestDecodeUserAcceptsQuotedID(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "number", raw: `{"id":42,"username":"a"}`, want: 42},
		{name: "numeric string", raw: `{"id":"42","username":"a"}`, want: 42},
		{name: "missing", raw: `{"username":"a"}`, want: 0},
		{name: "not a number", raw: `{"id":"abc","username":"a"}`, wantErr: true},
		{name: "fractional", raw: `{"id":1.5,"username":"a"}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeUser(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.ID != tc.want || got.Username != "a" {
				t.Fatalf("unexpected user %+v", got)
			}
		})
	}
}

func TestOpaqueSessionAcceptsQuotedUserID(t *testing.T) {
	jar := opaqueJar(t, "marie", testNow.Add(-time.Hour), nil)
	stamp := testNow.Add(-time.Minute).Format(time.RFC3339Nano)
	jar.Set(CookieUser, `{"id":"7","username":"marie","roles":["customer"],"lastValidated":"`+stamp+`"}`, CookieOptions{})
	dir := &fakeDirectory{}

	res := newAuth(WithDirectory(dir)).Authenticate(context.Background(), jar)
	if !res.Success || res.User == nil || res.User.ID != 7 {
		t.Fatalf("expected user 7, got %+v", res)
	}
	if dir.calls != 0 {
		t.Fatalf("fresh snapshot must not hit directory, got %d calls", dir.calls)
	}
}
