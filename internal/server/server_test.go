package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"baskt/internal/auth"
	"baskt/internal/market"
	"baskt/internal/replay"
	"baskt/internal/store/archive"
	"baskt/internal/store/gormstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls int
	bars  []market.RawBar
	err   error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context, q market.Query) ([]market.RawBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type apiFixture struct {
	t      *testing.T
	server *Server
	source *fakeSource
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := gormstore.NewGormStore(filepath.Join(dir, "baskt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	archiveStore, err := archive.NewStore(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = archiveStore.Close() })

	source := &fakeSource{bars: []market.RawBar{
		{Datetime: "2023-09-01 10:00:00", Open: "1.0841", High: "1.0850", Low: "1.0838", Close: "1.0847"},
		{Datetime: "2023-09-01 10:15:00", Open: "1.0847", High: "1.0861", Low: "1.0845", Close: "1.0859"},
		{Datetime: "2023-09-01 10:30:00", Open: "1.0859", High: "1.0864", Low: "1.0851", Close: "1.0853"},
	}}
	svc, err := replay.NewService(store, source, archiveStore)
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager("server-test-secret", time.Hour)
	require.NoError(t, err)

	srv, err := NewServer(Config{Store: store, Replay: svc, Tokens: tokens})
	require.NoError(t, err)
	return &apiFixture{t: t, server: srv, source: source}
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) decode(rec *httptest.ResponseRecorder, out interface{}) {
	f.t.Helper()
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), out))
}

func (f *apiFixture) signupAndLogin(email string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/signup", "", jsonBody{
		"full_name": "Test Trader",
		"username":  email,
		"email":     email,
		"password":  "hunter2hunter2",
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/login", "", jsonBody{"email": email, "password": "hunter2hunter2"})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	f.decode(rec, &resp)
	require.Equal(f.t, "bearer", resp.TokenType)
	require.NotEmpty(f.t, resp.AccessToken)
	return resp.AccessToken
}

type jsonBody = map[string]interface{}

func defaultSessionBody() jsonBody {
	return jsonBody{
		"name":             "eurusd practice",
		"start_date":       "2023-09-01",
		"end_date":         "2023-09-02",
		"starting_capital": 10000,
	}
}

func (f *apiFixture) createSession(token string) sessionOut {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/sessions", token, defaultSessionBody())
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out sessionOut
	f.decode(rec, &out)
	return out
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/signup", "", jsonBody{
		"full_name": "Test Trader",
		"username":  "trader",
		"email":     "trader@example.com",
		"password":  "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created userOut
	f.decode(rec, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "trader@example.com", created.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	t.Run("duplicate email rejected", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/signup", "", jsonBody{
			"full_name": "Another",
			"username":  "trader2",
			"email":     "trader@example.com",
			"password":  "hunter2hunter2",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/signup", "", jsonBody{
			"full_name": "Short",
			"username":  "shorty",
			"email":     "short@example.com",
			"password":  "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/login", "", jsonBody{"email": "trader@example.com", "password": "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email is 401", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/login", "", jsonBody{"email": "nobody@example.com", "password": "hunter2hunter2"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	rec = f.do(http.MethodPost, "/login", "", jsonBody{"email": "trader@example.com", "password": "hunter2hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/sessions", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/sessions", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token of a deleted user", func(t *testing.T) {
		token := f.signupAndLogin("ghost@example.com")
		rec := f.do(http.MethodDelete, "/userdash", token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, "/sessions", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserDash(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("dash@example.com")

	rec := f.do(http.MethodGet, "/userdash", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out userOut
	f.decode(rec, &out)
	assert.Equal(t, "dash@example.com", out.Email)
}

func TestSessionLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("sessions@example.com")

	session := f.createSession(token)
	assert.Equal(t, "EUR/USD", session.Symbol)
	assert.Equal(t, "15min", session.Timeframe)
	assert.Equal(t, 20, session.CurrentCandleIndex)
	assert.Equal(t, 10000.0, session.CurrentBalance)
	assert.JSONEq(t, "[]", string(session.Trades))
	assert.False(t, session.IsCompleted)
	assert.Nil(t, session.Result)

	t.Run("list", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/sessions", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []sessionOut
		f.decode(rec, &out)
		require.Len(t, out, 1)
		assert.Equal(t, session.ID, out[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		rec := f.do(http.MethodGet, fmt.Sprintf("/sessions/%d", session.ID), token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other user sees 404", func(t *testing.T) {
		otherToken := f.signupAndLogin("intruder@example.com")
		rec := f.do(http.MethodGet, fmt.Sprintf("/sessions/%d", session.ID), otherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = f.do(http.MethodDelete, fmt.Sprintf("/sessions/%d", session.ID), otherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(http.MethodDelete, fmt.Sprintf("/sessions/%d", session.ID), token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, fmt.Sprintf("/sessions/%d", session.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSessionCreateValidation(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("validate@example.com")

	cases := map[string]jsonBody{
		"missing name": {
			"start_date": "2023-09-01", "end_date": "2023-09-02", "starting_capital": 10000,
		},
		"bad date format": {
			"name": "x", "start_date": "09/01/2023", "end_date": "2023-09-02", "starting_capital": 10000,
		},
		"start after end": {
			"name": "x", "start_date": "2023-09-03", "end_date": "2023-09-02", "starting_capital": 10000,
		},
		"zero capital": {
			"name": "x", "start_date": "2023-09-01", "end_date": "2023-09-02", "starting_capital": 0,
		},
		"unsupported timeframe": {
			"name": "x", "start_date": "2023-09-01", "end_date": "2023-09-02",
			"starting_capital": 10000, "timeframe": "13min",
		},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/sessions", token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	t.Run("timeframe alias normalized", func(t *testing.T) {
		body := defaultSessionBody()
		body["timeframe"] = "15m"
		rec := f.do(http.MethodPost, "/sessions", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
		var out sessionOut
		f.decode(rec, &out)
		assert.Equal(t, "15min", out.Timeframe)
	})
}

func TestSessionDataEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("data@example.com")
	session := f.createSession(token)
	path := fmt.Sprintf("/sessions/%d/data", session.ID)

	rec := f.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first struct {
		Data   []market.Candle `json:"data"`
		Source string          `json:"source"`
	}
	f.decode(rec, &first)
	assert.Equal(t, "provider", first.Source)
	require.Len(t, first.Data, 3)
	assert.Equal(t, int64(1693564200), first.Data[0].Time)

	rec = f.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		Data   []market.Candle `json:"data"`
		Source string          `json:"source"`
	}
	f.decode(rec, &second)
	assert.Equal(t, "cache", second.Source)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, 1, f.source.calls)
}

func TestSessionDataProviderFailures(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("failures@example.com")
	session := f.createSession(token)
	path := fmt.Sprintf("/sessions/%d/data", session.ID)

	t.Run("unreachable is 503", func(t *testing.T) {
		f.source.err = market.ErrUnavailable
		rec := f.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("provider rejection is 422", func(t *testing.T) {
		f.source.err = &market.ProviderError{Code: 404, Message: "symbol not found"}
		rec := f.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "symbol not found")
	})

	t.Run("garbage payload is 502", func(t *testing.T) {
		f.source.err = nil
		f.source.bars = []market.RawBar{{Datetime: "2023-09-01 10:00:00", Open: "not-a-number", High: "1", Low: "1", Close: "1"}}
		rec := f.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestAdvanceStateEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("advance@example.com")
	session := f.createSession(token)
	path := fmt.Sprintf("/sessions/%d/state", session.ID)

	body := jsonBody{
		"current_candle_index": 21,
		"current_balance":      10120.5,
		"position_quantity":    2,
		"position_avg_price":   1.0845,
		"trades":               []jsonBody{{"side": "buy", "quantity": "2", "pnl": "120.5"}},
	}
	rec := f.do(http.MethodPut, path, token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out sessionOut
	f.decode(rec, &out)
	assert.Equal(t, 21, out.CurrentCandleIndex)
	assert.Equal(t, 10120.5, out.CurrentBalance)

	t.Run("unknown field is 400", func(t *testing.T) {
		bad := jsonBody{
			"current_candle_index": 22, "current_balance": 1.0, "position_quantity": 0,
			"position_avg_price": 0, "trades": []jsonBody{}, "is_completed": true,
		}
		rec := f.do(http.MethodPut, path, token, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other user's advance is 404", func(t *testing.T) {
		otherToken := f.signupAndLogin("advance-other@example.com")
		rec := f.do(http.MethodPut, path, otherToken, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCompleteSessionEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("complete@example.com")
	session := f.createSession(token)
	path := fmt.Sprintf("/sessions/%d/complete", session.ID)

	rec := f.do(http.MethodPut, path, token, jsonBody{"result": 10250.0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out sessionOut
	f.decode(rec, &out)
	require.NotNil(t, out.Result)
	assert.Equal(t, 10250.0, *out.Result)
	assert.True(t, out.IsCompleted)

	t.Run("missing result is 400", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, token, jsonBody{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("advance after completion is 409", func(t *testing.T) {
		body := jsonBody{
			"current_candle_index": 25, "current_balance": 1.0, "position_quantity": 0,
			"position_avg_price": 0, "trades": []jsonBody{},
		}
		rec := f.do(http.MethodPut, fmt.Sprintf("/sessions/%d/state", session.ID), token, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("zero result accepted", func(t *testing.T) {
		rec := f.do(http.MethodPut, path, token, jsonBody{"result": 0.0})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestSessionChartEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("chart@example.com")
	session := f.createSession(token)

	rec := f.do(http.MethodGet, fmt.Sprintf("/sessions/%d/chart", session.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestJournalCRUD(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("journal@example.com")

	rec := f.do(http.MethodPost, "/journal", token, jsonBody{"title": "first trade", "content": "went long too early"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry journalEntryOut
	f.decode(rec, &entry)
	assert.NotZero(t, entry.ID)

	t.Run("list", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/journal", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []journalEntryOut
		f.decode(rec, &out)
		require.Len(t, out, 1)
	})

	t.Run("update", func(t *testing.T) {
		rec := f.do(http.MethodPut, fmt.Sprintf("/journal/%d", entry.ID), token, jsonBody{"title": "first trade", "content": "revised notes"})
		require.Equal(t, http.StatusOK, rec.Code)
		var out journalEntryOut
		f.decode(rec, &out)
		assert.Equal(t, "revised notes", out.Content)
	})

	t.Run("ownership", func(t *testing.T) {
		otherToken := f.signupAndLogin("journal-other@example.com")
		rec := f.do(http.MethodGet, fmt.Sprintf("/journal/%d", entry.ID), otherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(http.MethodDelete, fmt.Sprintf("/journal/%d", entry.ID), token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, fmt.Sprintf("/journal/%d", entry.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signupAndLogin("cascade@example.com")
	session := f.createSession(token)
	rec := f.do(http.MethodPost, "/journal", token, jsonBody{"title": "t", "content": "c"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodDelete, "/userdash", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, fmt.Sprintf("/sessions/%d", session.ID), token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
