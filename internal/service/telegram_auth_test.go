package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyTelegramHash_RoundTrip(t *testing.T) {
	data := TelegramAuthData{
		ID:        123456,
		FirstName: "Ada",
		Username:  "ada",
		AuthDate:  1700000000,
	}
	data.Hash = SignTelegramAuth(data, "123:token")

	assert.True(t, VerifyTelegramHash(data, "123:token"))
	assert.False(t, VerifyTelegramHash(data, "123:other-token"))
}

func TestVerifyTelegramHash_TamperedField(t *testing.T) {
	data := TelegramAuthData{ID: 123456, AuthDate: 1700000000}
	data.Hash = SignTelegramAuth(data, "123:token")

	data.ID = 654321
	assert.False(t, VerifyTelegramHash(data, "123:token"))
}

func TestVerifyTelegramHash_EmptyHash(t *testing.T) {
	data := TelegramAuthData{ID: 123456, AuthDate: 1700000000}
	assert.False(t, VerifyTelegramHash(data, "123:token"))
}

func TestVerifyTelegramHash_OptionalFieldsExcludedWhenEmpty(t *testing.T) {
	// An empty last_name must not enter the check string; signing with and
	// without the zero value must agree.
	signed := TelegramAuthData{ID: 1, FirstName: "A", LastName: "", AuthDate: 1700000000}
	signed.Hash = SignTelegramAuth(TelegramAuthData{ID: 1, FirstName: "A", AuthDate: 1700000000}, "123:token")

	assert.True(t, VerifyTelegramHash(signed, "123:token"))
}
