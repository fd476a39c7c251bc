package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woodcraft-crm/leadflow-api/internal/secrets"
)

type mapStore map[string]string

func (m mapStore) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source secrets.SecretSource
		env    string
		want   secrets.SecretSource
	}{
		{secrets.SourceAuto, "development", secrets.SourceEnvironment},
		{secrets.SourceAuto, "", secrets.SourceEnvironment},
		{secrets.SourceAuto, "production", secrets.SourceVault},
		{secrets.SourceAuto, "staging", secrets.SourceVault},
		{secrets.SourceEnvironment, "production", secrets.SourceEnvironment},
		{"", "test", secrets.SourceEnvironment},
	}
	for _, tc := range tests {
		t.Run(string(tc.source)+"/"+tc.env, func(t *testing.T) {
			assert.Equal(t, tc.want, secrets.ResolveSource(tc.source, tc.env))
		})
	}
}

func TestEnvironmentProvider(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	p, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceEnvironment}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsVaultEnabled())

	v, err := p.GetSecret(context.Background(), "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = p.GetSecret(context.Background(), "missing-secret")
	assert.Error(t, err)
}

func TestVaultRequiresName(t *testing.T) {
	_, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestGetSecretOrEnv(t *testing.T) {
	p := secrets.NewProviderWithStore(secrets.SourceVault, mapStore{"redis-password": "from-vault"}, zap.NewNop())
	ctx := context.Background()

	v, err := p.GetSecretOrEnv(ctx, "redis-password", "REDIS_PASSWORD_OVERRIDE_TEST")
	require.NoError(t, err)
	assert.Equal(t, "from-vault", v)

	t.Setenv("REDIS_PASSWORD_OVERRIDE_TEST", "from-env")
	v, err = p.GetSecretOrEnv(ctx, "redis-password", "REDIS_PASSWORD_OVERRIDE_TEST")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	assert.Equal(t, "fallback", p.GetSecretOrEnvWithDefault(ctx, "nope", "NOPE_NOT_SET_TEST", "fallback"))
}
