package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("GO_ENV", helpers.GO_TEST_ENV)
	app := NewApp()
	app.SetupNotFoundHandler()
	app.SetupRoutes(Routes)
	return app
}

func TestRouteTableCoversAPISurface(t *testing.T) {
	required := map[string]bool{
		"GET /api/workshops":                  false,
		"POST /api/rsvp/confirm":              false,
		"POST /api/rsvp/decline":              false,
		"GET /api/rsvp/live":                  false,
		"POST /api/register":                  false,
		"PATCH /api/profile":                  false,
		"GET /api/admin/participants":         false,
		"POST /api/admin/participants/status": false,
		"GET /api/admin/stats":                false,
		"GET /api/admin/workshops/export":     false,
	}
	for _, route := range Routes {
		key := route.Method + " " + route.Path
		if _, ok := required[key]; ok {
			required[key] = true
		}
	}
	for key, found := range required {
		if !found {
			t.Errorf("route table is missing %s", key)
		}
	}
}

func TestRequireAuthWithoutToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/workshops", nil)
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var res transport.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("expected error envelope, got %+v", res)
	}
}

func TestMethodNotRegistered(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("DELETE", "/api/rsvp/confirm", nil)
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	if rr.Code == http.StatusOK {
		t.Errorf("unregistered method should not succeed, got %d", rr.Code)
	}
}

func TestNotFoundHandler(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/nope", nil)
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestWithContextInjectsGatewayRequest(t *testing.T) {
	var captured events.APIGatewayV2HTTPRequest
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, ok = r.Context().Value(helpers.ApiGwV2ReqKey).(events.APIGatewayV2HTTPRequest)
	})

	req := httptest.NewRequest("POST", "/api/register", nil)
	withContext(next).ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("expected gateway request in context")
	}
	if captured.RequestContext.HTTP.Method != "POST" || captured.RequestContext.HTTP.Path != "/api/register" {
		t.Errorf("unexpected injected request: %+v", captured.RequestContext.HTTP)
	}
}
