package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// TelegramAuthData is the Telegram Login Widget payload.
type TelegramAuthData struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// checkFields lists the signed key/value pairs, hash excluded.
func (d TelegramAuthData) checkFields() map[string]string {
	fields := map[string]string{
		"id":        fmt.Sprintf("%d", d.ID),
		"auth_date": fmt.Sprintf("%d", d.AuthDate),
	}
	if d.FirstName != "" {
		fields["first_name"] = d.FirstName
	}
	if d.LastName != "" {
		fields["last_name"] = d.LastName
	}
	if d.Username != "" {
		fields["username"] = d.Username
	}
	if d.PhotoURL != "" {
		fields["photo_url"] = d.PhotoURL
	}
	return fields
}

// VerifyTelegramHash validates the widget signature: HMAC-SHA256 over the
// sorted "key=value" lines with SHA256(bot token) as the key.
func VerifyTelegramHash(data TelegramAuthData, botToken string) bool {
	if data.Hash == "" {
		return false
	}

	fields := data.checkFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	checkString := strings.Join(lines, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(data.Hash))
}

// SignTelegramAuth computes the widget hash for a payload. Test helper
// and reference implementation of the signing side.
func SignTelegramAuth(data TelegramAuthData, botToken string) string {
	fields := data.checkFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
