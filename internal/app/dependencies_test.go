package app

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
)

func TestAsynqRedisOpt(t *testing.T) {
	opt, err := AsynqRedisOpt("redis://worker:pw@cache.internal:6380/2")
	require.NoError(t, err)
	require.Equal(t, "cache.internal:6380", opt.Addr)
	require.Equal(t, "worker", opt.Username)
	require.Equal(t, "pw", opt.Password)
	require.Equal(t, 2, opt.DB)

	_, err = AsynqRedisOpt("://bad")
	require.Error(t, err)
}

func TestHashPasswordVerifies(t *testing.T) {
	hash, err := HashPassword("kasir-pass")
	require.NoError(t, err)
	ok, err := argon2id.ComparePasswordAndHash("kasir-pass", hash)
	require.NoError(t, err)
	require.True(t, ok)
}
