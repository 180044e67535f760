package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/memory"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/middleware"
)

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "H:" + pw, nil }

func (plainHasher) Compare(hash, pw string) error {
	if hash != "H:"+pw {
		return domain.ErrInvalidCredentials()
	}
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)

func newTestUserHandler(t *testing.T) (*UserHandler, *directory.Service) {
	t.Helper()
	svc := directory.NewService(memory.NewUserStore(), plainHasher{}, directory.Config{
		Clock: func() time.Time { return fixedNow },
	})
	h := NewUserHandler(svc)
	h.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	return h, svc
}

func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

// mustReadData decodes the {"data": ...} envelope into out.
func mustReadData(t *testing.T, r io.Reader, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	raw, _ := io.ReadAll(r)
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		t.Fatalf("decode envelope failed; body=%s", raw)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data failed; body=%s err=%v", raw, err)
	}
}

func errorCode(t *testing.T, r io.Reader) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func asUser(req *http.Request, username string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{Username: username}))
}

func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rdr io.Reader
	if s, ok := body.(string); ok {
		rdr = bytes.NewBufferString(s)
	} else {
		rdr = mustJSONBody(t, body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}
