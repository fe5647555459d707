package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted peer keeps its address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.7:5123",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "203.0.113.7:5123",
		},
		{
			name:    "trusted proxy with X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			want:    "198.51.100.4",
		},
		{
			name:    "trusted proxy with X-Forwarded-For chain",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:4000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2"},
			want:    "198.51.100.9",
		},
		{
			name:    "invalid header value is ignored",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:4000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "127.0.0.1:4000",
		},
		{
			name:    "ipv6 proxy",
			trusted: []string{"::1"},
			remote:  "[::1]:4000",
			headers: map[string]string{"X-Real-IP": "2001:db8::5"},
			want:    "2001:db8::5",
		},
		{
			name:    "no trusted proxies",
			remote:  "127.0.0.1:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			want:    "127.0.0.1:4000",
		},
		{
			name:    "bad entries are skipped",
			trusted: []string{"bogus", " ", "127.0.0.0/8"},
			remote:  "127.0.0.1:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			want:    "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerKeepsStatusAndFlushes(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("Flush() error = %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if !rec.Flushed {
		t.Error("response was not flushed")
	}
	if got := rec.Body.String(); got != "short and stout" {
		t.Errorf("body = %q", got)
	}
}
