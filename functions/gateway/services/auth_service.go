package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/zitadel/zitadel-go/v3/pkg/authorization"
	"github.com/zitadel/zitadel-go/v3/pkg/authorization/oauth"
	"github.com/zitadel/zitadel-go/v3/pkg/zitadel"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
)

var (
	domain        = flag.String("domain", os.Getenv("ZITADEL_INSTANCE_HOST"), "your ZITADEL instance domain (in the form: https://<instance>.zitadel.cloud or https://<yourdomain>)")
	clientID      = flag.String("clientID", os.Getenv("ZITADEL_CLIENT_ID"), "clientID provided by ZITADEL")
	clientSecret  = flag.String("clientSecret", os.Getenv("ZITADEL_CLIENT_SECRET"), "clientSecret provided by ZITADEL")
	jwtClientID   = flag.String("jwtClientID", os.Getenv("ZITADEL_JWT_CLIENT_ID"), "Client ID for JWT app for service user auth in ZITADEL")
	apiPvtKeyID   = flag.String("apiPvtKeyID", os.Getenv("API_PRIVATE_KEY_ID"), "Private key ID for JWT app for service user auth in ZITADEL")
	projectID     = flag.String("projectID", os.Getenv("ZITADEL_PROJECT_ID"), "zitadel project ID for the hackathon portal")
	redirectURI   = flag.String("redirectURI", string(os.Getenv("APEX_URL")+"/auth/callback"), "redirect URI registered with ZITADEL")
	loginPageURI  = flag.String("loginPageURI", string(os.Getenv("APEX_URL")), "App login page URI")
	authorizeURI  = flag.String("authorizeURI", string("https://"+os.Getenv("ZITADEL_INSTANCE_HOST")+"/oauth/v2/authorize"), "Zitadel authorizeURL")
	tokenURI      = flag.String("tokenURI", string("https://"+os.Getenv("ZITADEL_INSTANCE_HOST")+"/oauth/v2/token"), "Zitadel endpoint to exchange code challenge and verifier for token")
	endSessionURI = flag.String("endSessionURI", string("https://"+os.Getenv("ZITADEL_INSTANCE_HOST")+"/oidc/v1/end_session"), "Zitadel logout URI")
	authZ         *authorization.Authorizer[*oauth.IntrospectionContext]
	once          sync.Once
)

func InitAuth() {
	once.Do(func() {
		ctx := context.Background()

		introspectionAuth := oauth.ClientIDSecretIntrospectionAuthentication(*clientID, *clientSecret)

		var err error
		authZ, err = authorization.New(ctx, zitadel.New(*domain), oauth.WithIntrospection[*oauth.IntrospectionContext](introspectionAuth))
		if err != nil {
			log.Fatalf("failed to initialize authorizer: %v", err)
		}
	})
}

func GetAuthMw() *authorization.Authorizer[*oauth.IntrospectionContext] {
	InitAuth()
	return authZ
}

// ExtractClaimsMeta formats role claims and metadata out of token claims.
func ExtractClaimsMeta(claims map[string]interface{}) ([]helpers.RoleClaim, map[string]interface{}) {
	var userMeta map[string]interface{}
	var roles []helpers.RoleClaim

	if metadataMap, ok := claims[helpers.AUTH_METADATA_KEY].(map[string]interface{}); ok {
		userMeta = metadataMap
	}

	roleKey := strings.Replace(helpers.AUTH_ROLE_CLAIMS_KEY, "<project-id>", *projectID, 1)
	if roleMap, ok := claims[roleKey].(map[string]interface{}); ok {
		for role, projects := range roleMap {
			if projectMap, ok := projects.(map[string]interface{}); ok {
				for projectID, projectName := range projectMap {
					roles = append(roles, helpers.RoleClaim{
						Role:        role,
						ProjectID:   projectID,
						ProjectName: fmt.Sprintf("%v", projectName),
					})
				}
			}
		}
	}

	return roles, userMeta
}

func randomBytesInHex(count int) (string, error) {
	buf := make([]byte, count)
	_, err := io.ReadFull(rand.Reader, buf)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

func GenerateCodeChallengeAndVerifier() (string, string, error) {
	codeVerifier, err := randomBytesInHex(32)
	if err != nil {
		return "", "", err
	}

	sha2 := sha256.New()
	io.WriteString(sha2, codeVerifier)

	codeChallenge := base64.RawURLEncoding.EncodeToString(sha2.Sum(nil))

	return codeChallenge, codeVerifier, nil
}

func BuildAuthorizeRequest(codeChallenge string, userRedirectURL string) (*url.URL, error) {
	authURL, err := url.Parse(*authorizeURI)
	if err != nil {
		return nil, err
	}

	query := authURL.Query()
	query.Set("client_id", *clientID)
	query.Set("redirect_uri", *redirectURI)
	query.Set("response_type", "code")
	query.Set("scope", "openid oidc profile email offline_access "+helpers.AUTH_METADATA_KEY)
	query.Set("code_challenge", codeChallenge)
	query.Set("code_challenge_method", "S256")
	query.Set("state", userRedirectURL)

	authURL.RawQuery = query.Encode()

	return authURL, nil
}

func GetAuthToken(code string, codeVerifier string) (map[string]interface{}, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", *redirectURI)
	data.Set("client_id", *clientID)
	data.Set("code_verifier", codeVerifier)

	resp, err := http.PostForm(*tokenURI, data)
	if err != nil {
		log.Printf("Failed to get tokens: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	return result, nil
}

func RefreshAccessToken(refreshToken string) (map[string]interface{}, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("redirect_uri", *redirectURI)
	data.Set("client_id", *clientID)
	data.Set("client_secret", *clientSecret)

	resp, err := http.PostForm(*tokenURI, data)
	if err != nil {
		log.Printf("Failed to refresh access_token: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	return result, nil
}

// GenerateServiceJWT signs a client assertion for service-user calls to the
// management API (email update, metadata writes).
func GenerateServiceJWT(privateKeyPEM string) (string, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": *jwtClientID,
		"sub": *jwtClientID,
		"aud": "https://" + *domain,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = *apiPvtKeyID
	return token.SignedString(privateKey)
}

var (
	serviceTokenMu  sync.Mutex
	serviceToken    string
	serviceTokenExp time.Time
)

// GetServiceAccessToken exchanges a signed client assertion for a
// management-API token via the JWT bearer grant, cached until shortly
// before expiry.
func GetServiceAccessToken() (string, error) {
	serviceTokenMu.Lock()
	defer serviceTokenMu.Unlock()

	if serviceToken != "" && time.Now().Before(serviceTokenExp.Add(-time.Minute)) {
		return serviceToken, nil
	}

	assertion, err := GenerateServiceJWT(os.Getenv("API_PRIVATE_KEY"))
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("grant_type", helpers.JWT_BEARER_GRANT_TYPE)
	data.Set("assertion", assertion)
	data.Set("scope", helpers.ZITADEL_API_SCOPE)

	resp, err := http.PostForm(*tokenURI, data)
	if err != nil {
		return "", fmt.Errorf("failed to get service token: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode service token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("service token response missing access_token")
	}

	serviceToken = result.AccessToken
	serviceTokenExp = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return serviceToken, nil
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, helpers.ACCESS_TOKEN_COOKIE_NAME)
	clearCookie(w, helpers.REFRESH_TOKEN_COOKIE_NAME)

	logoutURL, err := url.Parse(*endSessionURI)
	if err != nil {
		log.Printf("Failed to parse Zitadel End Session URI: %v", err)
		return
	}

	postLogoutURI, err := url.Parse(*loginPageURI)
	if err != nil {
		log.Printf("Failed to parse post-logout URI: %v", err)
		return
	}

	query := logoutURL.Query()
	query.Set("post_logout_redirect_uri", postLogoutURI.String())
	query.Set("client_id", *clientID)

	logoutURL.RawQuery = query.Encode()
	http.Redirect(w, r, logoutURL.String(), http.StatusFound)
}

func clearCookie(w http.ResponseWriter, cookieName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}

