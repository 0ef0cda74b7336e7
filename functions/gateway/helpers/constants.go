package helpers

import (
	"os"
	"strconv"
)

type ReqKey string

const ApiGwV2ReqKey ReqKey = "ApiGwV2Req"

const USER_INFO_CTX_KEY = "userInfo"
const WORKSHOP_ID_KEY string = "workshopId"
const USER_ID_KEY string = "userId"

const PKCE_VERIFIER_COOKIE_NAME = "mru_pkce_verifier"
const ACCESS_TOKEN_COOKIE_NAME = "mru_access_token"
const REFRESH_TOKEN_COOKIE_NAME = "mru_refresh_token"

const JWT_BEARER_GRANT_TYPE = "urn:ietf:params:oauth:grant-type:jwt-bearer"
const ZITADEL_API_SCOPE = "openid urn:zitadel:iam:org:project:id:zitadel:aud"
const AUTH_ROLE_CLAIMS_KEY = "urn:zitadel:iam:org:project:<project-id>:roles"
const AUTH_METADATA_KEY = "urn:zitadel:iam:user:metadata"
const PENDING_EMAIL_METADATA_KEY = "pendingEmail"

const GO_TEST_ENV = "test"

// DEFAULT_RSVP_CAPACITY is the first-come-first-served admission cap used
// when RSVP_CAPACITY is not set in the environment.
const DEFAULT_RSVP_CAPACITY = 150

// Lookup reads are issued in pairs to bound concurrent load on the pool.
const LOOKUP_BATCH_SIZE = 2

const DEFAULT_TRENDS_DAYS = 30

const RSVP_COUNT_SUBJECT = "rsvp.confirmed.count"
const WORKSHOP_COUNT_SUBJECT_PREFIX = "workshops.count."

// UserInfo is the identity payload the auth middleware stores on the request
// context. Sub is the external auth id.
type UserInfo struct {
	Email             string      `json:"email"`
	EmailVerified     bool        `json:"email_verified"`
	FamilyName        string      `json:"family_name"`
	GivenName         string      `json:"given_name"`
	Name              string      `json:"name"`
	PreferredUsername string      `json:"preferred_username"`
	Sub               string      `json:"sub"`
	UpdatedAt         int         `json:"updated_at"`
	Metadata          string      `json:"metadata"`
	RoleClaims        []RoleClaim `json:"-"`
}

// RoleClaim represents a formatted role claim.
type RoleClaim struct {
	Role        string `json:"role"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
}

type Role string

const (
	SuperAdmin Role = "super_admin"
	Admin      Role = "admin"
	Volunteer  Role = "volunteer"
)

const (
	AdminStatusActive   = "active"
	AdminStatusInactive = "inactive"
)

func GetRsvpCapacity() int64 {
	raw := os.Getenv("RSVP_CAPACITY")
	if raw == "" {
		return DEFAULT_RSVP_CAPACITY
	}
	capacity, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || capacity <= 0 {
		return DEFAULT_RSVP_CAPACITY
	}
	return capacity
}
