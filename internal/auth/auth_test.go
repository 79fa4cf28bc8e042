package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct{ msg string }

func (f *failingProvider) GetToken() (string, error) { return "", errors.New(f.msg) }

func TestEnvProvider_GetToken_Success(t *testing.T) {
	t.Setenv(TokenEnvVar, "jira_test_token_123")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	require.NoError(t, err)
	assert.Equal(t, "jira_test_token_123", token)
}

func TestEnvProvider_GetToken_Missing(t *testing.T) {
	t.Setenv(TokenEnvVar, "")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), TokenEnvVar)
}

func TestStaticProvider_GetToken(t *testing.T) {
	token, err := (&StaticProvider{Token: " abc "}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = (&StaticProvider{}).GetToken()
	assert.Error(t, err)
}

func TestCommandProvider_GetToken(t *testing.T) {
	t.Run("first line of output", func(t *testing.T) {
		provider := &CommandProvider{Command: "printf secret\\nsecond"}
		token, err := provider.GetToken()
		require.NoError(t, err)
		assert.Equal(t, "secret", token)
	})

	t.Run("missing binary", func(t *testing.T) {
		provider := &CommandProvider{Command: "definitely-not-a-real-credential-helper"}
		_, err := provider.GetToken()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found in PATH")
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := (&CommandProvider{}).GetToken()
		assert.EqualError(t, err, "no credential command configured")
	})
}

func TestGetToken_FirstSuccessWins(t *testing.T) {
	token, err := GetToken(
		&failingProvider{msg: "first"},
		&StaticProvider{Token: "from-config"},
		&StaticProvider{Token: "unused"},
	)
	require.NoError(t, err)
	assert.Equal(t, "from-config", token)
}

func TestGetToken_FallbackToEnv(t *testing.T) {
	t.Setenv(TokenEnvVar, "jira_fallback_token")

	token, err := GetToken(DefaultProviders("", "")...)
	require.NoError(t, err)
	assert.Equal(t, "jira_fallback_token", token)
}

func TestGetToken_AllFail(t *testing.T) {
	token, err := GetToken(&failingProvider{msg: "one"}, &failingProvider{msg: "two"})

	assert.Empty(t, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one; two")
	assert.Contains(t, err.Error(), TokenEnvVar)
	assert.Contains(t, err.Error(), "token_command")
}

func TestGetToken_NoProviders(t *testing.T) {
	_, err := GetToken()
	assert.Error(t, err)
}

func TestDefaultProviders(t *testing.T) {
	assert.Len(t, DefaultProviders("x", ""), 2)
	providers := DefaultProviders("x", "pass show jira")
	require.Len(t, providers, 3)
	assert.IsType(t, &CommandProvider{}, providers[2])
}
