package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	c := Cursor{
		V:   1,
		Db:  "app",
		C:   "users",
		Off: 200,
		Ps:  50,
		Fh:  FilterHash(`{"status":"active"}`),
	}
	tok, err := EncodeCursor(c)
	if err != nil {
		t.Fatalf("EncodeCursor error: %v", err)
	}
	// token should be url-safe base64 (no '+', '/', '=')
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token contains non-url-safe chars: %q", tok)
	}
	out, err := DecodeCursor(tok)
	if err != nil {
		t.Fatalf("DecodeCursor error: %v", err)
	}
	if out.Db != c.Db || out.C != c.C || out.Off != c.Off || out.Ps != c.Ps || out.Fh != c.Fh {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", out, c)
	}
	if !out.Matches("app", "users", c.Fh) {
		t.Fatalf("cursor should match its own query context")
	}
	if out.Matches("app", "orders", c.Fh) {
		t.Fatalf("cursor must not match a different collection")
	}
	if out.Matches("app", "users", FilterHash(`{}`)) {
		t.Fatalf("cursor must not match a different filter")
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	cases := []string{
		"",    // empty
		"!!!", // not base64
		base64.RawURLEncoding.EncodeToString([]byte("not-json")),
		// missing required fields
		mustB64(`{"v":1}`),
		mustB64(`{"v":1,"db":"","c":"users","off":0,"ps":10}`),
		mustB64(`{"v":1,"db":"app","c":"","off":0,"ps":10}`),
		mustB64(`{"v":1,"db":"app","c":"users","off":-1,"ps":10}`),
		mustB64(`{"v":1,"db":"app","c":"users","off":0,"ps":0}`),
	}
	for i, tok := range cases {
		if _, err := DecodeCursor(tok); err == nil {
			t.Fatalf("case %d: expected error for token %q", i, tok)
		}
	}
}

func TestNextOffset(t *testing.T) {
	if got := NextOffset(0, 20); got != 20 {
		t.Fatalf("NextOffset(0,20) = %d", got)
	}
	if got := NextOffset(-5, 20); got != 20 {
		t.Fatalf("NextOffset(-5,20) = %d", got)
	}
	if got := NextOffset(40, 0); got != 40 {
		t.Fatalf("NextOffset(40,0) = %d", got)
	}
}

func FuzzDecodeCursor(f *testing.F) {
	seeds := []string{
		"", "abc", mustB64(`{"v":1}`), mustB64(`{"db":"x"}`),
		mustB64(`{"v":1,"db":"app","c":"users","off":0,"ps":1}`),
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, token string) {
		_, _ = DecodeCursor(token)
	})
}

func mustB64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
