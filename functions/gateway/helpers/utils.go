package helpers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GetUserInfoFromContext returns the authenticated caller placed on the
// request context by the auth middleware. The second return is false when no
// valid identity is present.
func GetUserInfoFromContext(ctx context.Context) (UserInfo, bool) {
	userInfo, ok := ctx.Value(USER_INFO_CTX_KEY).(UserInfo)
	if !ok || userInfo.Sub == "" {
		return UserInfo{}, false
	}
	return userInfo, true
}

func FormatDate(d time.Time) string {
	return d.Format("Jan 2, 2006")
}

func FormatTimeRange(start, end string) string {
	if end == "" {
		return start
	}
	return start + " - " + end
}

// SpotsLeftMessage renders the remaining-capacity banner. The singular form
// matters: at one remaining spot the message must read "Only 1 spot left!".
func SpotsLeftMessage(confirmed, capacity int64) string {
	remaining := capacity - confirmed
	if remaining <= 0 {
		return "Event is full"
	}
	if remaining == 1 {
		return "Only 1 spot left!"
	}
	return fmt.Sprintf("Only %d spots left!", remaining)
}

// Management-API helpers below authenticate with a service-user access
// token; callers obtain one through the JWT bearer grant.

func GetUserMetadataByKey(accessToken, userID, key string) (string, error) {
	url := fmt.Sprintf("https://%s/management/v1/users/%s/metadata/%s", os.Getenv("ZITADEL_INSTANCE_HOST"), userID, key)

	client := &http.Client{}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", "Bearer "+accessToken)

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	var respData map[string]interface{}
	if err := json.Unmarshal(body, &respData); err != nil {
		return "", err
	}

	metadata, ok := respData["metadata"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no metadata for key %s", key)
	}
	value, _ := metadata["value"].(string)
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func UpdateUserMetadataKey(accessToken, userID, key, value string) error {
	url := fmt.Sprintf("https://%s/management/v1/users/%s/metadata/%s", os.Getenv("ZITADEL_INSTANCE_HOST"), userID, key)

	payload := strings.NewReader(`{
		"value": "` + base64.StdEncoding.EncodeToString([]byte(value)) + `"
	}`)

	client := &http.Client{}
	req, err := http.NewRequest("POST", url, payload)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", "Bearer "+accessToken)

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		var respData map[string]interface{}
		if err := json.Unmarshal(body, &respData); err != nil {
			return err
		}
		return fmt.Errorf("failed to update user metadata: %s, reason: %s", res.Status, respData)
	}
	return nil
}

// UpdateUserEmail changes the caller's email at the identity provider. The
// address stays unverified there until the user completes the emailed
// verification flow; our row keeps the old address plus a pending marker.
func UpdateUserEmail(accessToken, userID, email string) error {
	url := fmt.Sprintf("https://%s/management/v1/users/%s/email", os.Getenv("ZITADEL_INSTANCE_HOST"), userID)

	payload := strings.NewReader(`{
		"email": "` + email + `",
		"isEmailVerified": false
	}`)

	client := &http.Client{}
	req, err := http.NewRequest("PUT", url, payload)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", "Bearer "+accessToken)

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("failed to update user email: %s, reason: %s", res.Status, string(body))
	}
	return nil
}
