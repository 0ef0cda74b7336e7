package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/gorillamux"
	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/handlers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/services"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
)

type AuthType string

const (
	None    AuthType = "none"
	Check   AuthType = "check"
	Require AuthType = "require"
)

type Route struct {
	Path    string
	Method  string
	Handler func(http.ResponseWriter, *http.Request) http.HandlerFunc
	Auth    AuthType
}

var Routes []Route

func init() {
	Routes = []Route{
		{"/api/workshops", "GET", handlers.GetWorkshopsHandler, Require},
		{"/api/workshops/{" + helpers.WORKSHOP_ID_KEY + "}/register", "POST", handlers.RegisterForWorkshopHandler, Require},
		{"/api/workshops/{" + helpers.WORKSHOP_ID_KEY + "}/register", "DELETE", handlers.UnregisterFromWorkshopHandler, Require},

		{"/api/rsvp", "GET", handlers.GetRsvpHandler, Require},
		{"/api/rsvp/confirm", "POST", handlers.ConfirmAttendanceHandler, Require},
		{"/api/rsvp/decline", "POST", handlers.DeclineAttendanceHandler, Require},
		// Live count is public: the landing page shows it before sign-in
		{"/api/rsvp/live", "GET", handlers.GetLiveCountHandler, None},

		{"/api/register", "POST", handlers.RegisterUserHandler, Require},
		{"/api/profile", "GET", handlers.GetUserProfileHandler, Require},
		{"/api/profile", "PATCH", handlers.UpdateUserProfileHandler, Require},
		{"/api/form-options", "GET", handlers.GetFormOptionsHandler, Check},

		{"/api/admin/workshops", "GET", handlers.GetAdminWorkshopsHandler, Require},
		{"/api/admin/workshops", "POST", handlers.CreateWorkshopHandler, Require},
		{"/api/admin/workshops/{" + helpers.WORKSHOP_ID_KEY + "}", "PATCH", handlers.UpdateWorkshopHandler, Require},
		{"/api/admin/workshops/{" + helpers.WORKSHOP_ID_KEY + "}", "DELETE", handlers.DeleteWorkshopHandler, Require},
		{"/api/admin/workshops/export", "GET", handlers.ExportWorkshopRegistrationsHandler, Require},
		{"/api/admin/workshops/{" + helpers.WORKSHOP_ID_KEY + "}/registrations", "GET", handlers.GetWorkshopRegistrationsHandler, Require},

		{"/api/admin/participants", "GET", handlers.GetParticipantsHandler, Require},
		{"/api/admin/participants/status", "POST", handlers.BulkUpdateStatusHandler, Require},
		{"/api/admin/participants/{" + helpers.USER_ID_KEY + "}/checkin", "POST", handlers.SetCheckedInHandler, Require},
		{"/api/admin/stats", "GET", handlers.GetStatsHandler, Require},
		{"/api/admin/trends", "GET", handlers.GetTrendsHandler, Require},
	}
}

type App struct {
	Router *mux.Router
}

func NewApp() *App {
	app := &App{
		Router: mux.NewRouter(),
	}
	app.Router.Use(withContext)
	if os.Getenv("GO_ENV") != helpers.GO_TEST_ENV {
		services.InitAuth()
	}
	return app
}

func (app *App) SetupRoutes(routes []Route) {
	for _, route := range routes {
		app.addRoute(route)
	}
}

func (app *App) addRoute(route Route) {
	var handler http.HandlerFunc
	switch route.Auth {
	case Require:
		handler = func(w http.ResponseWriter, r *http.Request) {
			r, ok := withUserInfo(w, r)
			if !ok {
				transport.SendErrorRes(w, "Please sign in to continue", http.StatusUnauthorized, nil)
				return
			}
			route.Handler(w, r).ServeHTTP(w, r)
		}
	case Check:
		handler = func(w http.ResponseWriter, r *http.Request) {
			r, _ = withUserInfo(w, r)
			route.Handler(w, r).ServeHTTP(w, r)
		}
	default:
		handler = func(w http.ResponseWriter, r *http.Request) {
			route.Handler(w, r).ServeHTTP(w, r)
		}
	}

	app.Router.HandleFunc(route.Path, handler).Methods(route.Method).Name(route.Method + " " + route.Path)
}

// withUserInfo introspects the bearer token (header first, cookie as the
// browser fallback) and hangs the identity off the request context. Cookie
// sessions with an expired access token are refreshed transparently.
func withUserInfo(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, oidc.PrefixBearer) {
		userInfo, ok := introspectToken(r.Context(), strings.TrimPrefix(auth, oidc.PrefixBearer))
		if !ok {
			return r, false
		}
		return r.WithContext(context.WithValue(r.Context(), helpers.USER_INFO_CTX_KEY, userInfo)), true
	}

	if cookie, err := r.Cookie(helpers.ACCESS_TOKEN_COOKIE_NAME); err == nil {
		if userInfo, ok := introspectToken(r.Context(), cookie.Value); ok {
			return r.WithContext(context.WithValue(r.Context(), helpers.USER_INFO_CTX_KEY, userInfo)), true
		}
	}

	return refreshSession(w, r)
}

func introspectToken(ctx context.Context, token string) (helpers.UserInfo, bool) {
	if token == "" {
		return helpers.UserInfo{}, false
	}

	authCtx, err := services.GetAuthMw().CheckAuthorization(ctx, oidc.PrefixBearer+token)
	if err != nil || !authCtx.IsAuthorized() {
		return helpers.UserInfo{}, false
	}

	roles, _ := services.ExtractClaimsMeta(authCtx.Claims)
	return helpers.UserInfo{
		Sub:               authCtx.UserID(),
		Email:             string(authCtx.Email),
		Name:              authCtx.Name,
		GivenName:         authCtx.GivenName,
		FamilyName:        authCtx.FamilyName,
		PreferredUsername: authCtx.PreferredUsername,
		RoleClaims:        roles,
	}, true
}

// refreshSession trades the refresh cookie for a new token pair once the
// access token stops introspecting.
func refreshSession(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	refreshCookie, err := r.Cookie(helpers.REFRESH_TOKEN_COOKIE_NAME)
	if err != nil {
		return r, false
	}

	tokens, err := services.RefreshAccessToken(refreshCookie.Value)
	if err != nil {
		return r, false
	}
	accessToken, ok := tokens["access_token"].(string)
	if !ok {
		return r, false
	}

	userInfo, ok := introspectToken(r.Context(), accessToken)
	if !ok {
		return r, false
	}

	setSessionCookie(w, helpers.ACCESS_TOKEN_COOKIE_NAME, accessToken)
	if refreshToken, ok := tokens["refresh_token"].(string); ok {
		setSessionCookie(w, helpers.REFRESH_TOKEN_COOKIE_NAME, refreshToken)
	}

	ctx := context.WithValue(r.Context(), helpers.USER_INFO_CTX_KEY, userInfo)
	return r.WithContext(ctx), true
}

func setSessionCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (app *App) SetupAuthRoutes() {
	app.Router.Handle("/login", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		codeChallenge, codeVerifier, err := services.GenerateCodeChallengeAndVerifier()
		if err != nil {
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     helpers.PKCE_VERIFIER_COOKIE_NAME,
			Value:    codeVerifier,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})

		redirectTarget := req.URL.Query().Get("redirect")
		if redirectTarget == "" {
			redirectTarget = "/"
		}

		authURL, err := services.BuildAuthorizeRequest(codeChallenge, redirectTarget)
		if err != nil {
			http.Error(w, "Failed to authorize request", http.StatusBadRequest)
			return
		}

		http.Redirect(w, req, authURL.String(), http.StatusFound)
	}))

	app.Router.Handle("/auth/callback", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization code is missing", http.StatusBadRequest)
			return
		}

		verifierCookie, err := req.Cookie(helpers.PKCE_VERIFIER_COOKIE_NAME)
		if err != nil {
			http.Error(w, "Login session expired, please try again", http.StatusBadRequest)
			return
		}

		tokens, err := services.GetAuthToken(code, verifierCookie.Value)
		if err != nil {
			log.Printf("Authentication failed: %v", err)
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
			return
		}

		accessToken, ok := tokens["access_token"].(string)
		if !ok {
			http.Error(w, "Failed to get access token", http.StatusInternalServerError)
			return
		}
		refreshToken, ok := tokens["refresh_token"].(string)
		if !ok {
			http.Error(w, "Failed to get refresh token", http.StatusInternalServerError)
			return
		}

		setSessionCookie(w, helpers.ACCESS_TOKEN_COOKIE_NAME, accessToken)
		setSessionCookie(w, helpers.REFRESH_TOKEN_COOKIE_NAME, refreshToken)

		redirectTarget := req.URL.Query().Get("state")
		if redirectTarget == "" || !strings.HasPrefix(redirectTarget, "/") {
			redirectTarget = "/"
		}
		http.Redirect(w, req, redirectTarget, http.StatusSeeOther)
	}))

	app.Router.Handle("/auth/logout", http.HandlerFunc(services.HandleLogout))
}

func (app *App) SetupNotFoundHandler() {
	app.Router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Println("Not found", r.RequestURI)
		http.Error(w, fmt.Sprintf("Not found: %s", r.RequestURI), http.StatusNotFound)
	})
}

// Middleware to inject the API Gateway request into context when it is
// missing, which is the case when running outside Lambda
func withContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := ctx.Value(helpers.ApiGwV2ReqKey).(events.APIGatewayV2HTTPRequest); !ok {
			ctx = context.WithValue(ctx, helpers.ApiGwV2ReqKey, events.APIGatewayV2HTTPRequest{
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
						Method: r.Method,
						Path:   r.URL.Path,
					},
				},
			})
		}
		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
	})
}

func main() {
	flag.Parse()
	app := NewApp()
	app.SetupAuthRoutes()
	app.SetupNotFoundHandler()
	app.SetupRoutes(Routes)

	// Warm the connection pool before the first request lands
	db := transport.GetDB()
	services.SetRsvpCountFetcher(func() (int64, error) {
		return services.CountConfirmed(context.Background(), db)
	})

	adapter := gorillamux.NewV2(app.Router)

	lambda.Start(func(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		ctx = context.WithValue(ctx, helpers.ApiGwV2ReqKey, request)
		return adapter.ProxyWithContext(ctx, request)
	})
}
