package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
	"github.com/polkiloo/autoorder/internal/pkg/vault"
	testhelpers "github.com/polkiloo/autoorder/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestCipher(t *testing.T) *vault.Cipher {
	t.Helper()
	c, err := vault.NewCipher("test-vault-key")
	require.NoError(t, err)
	return c
}

func connectSupplier(t *testing.T, creds repository.CredentialRepository, cipher *vault.Cipher, userID int64, s model.SupplierType) {
	t.Helper()
	uc := NewCredentialUseCase(creds, cipher)
	require.NoError(t, uc.Connect(context.Background(), userID, s, model.CredentialInput{AccessToken: "token-" + string(s), AppKey: "key", AppSecret: "secret"}))
}

func TestCredentialResolverResolvesActiveCredential(t *testing.T) {
	cipher := newTestCipher(t)
	creds := testhelpers.NewCredentialRepositoryStub()
	connectSupplier(t, creds, cipher, 7, model.SupplierAliExpress)

	r := NewCredentialResolver(creds, cipher, discardLogger())
	cred := r.Resolve(context.Background(), 7, model.SupplierAliExpress)
	require.NotNil(t, cred)
	assert.Equal(t, "token-aliexpress", cred.AccessToken)
	assert.Equal(t, "key", cred.AppKey)
	assert.Equal(t, "secret", cred.AppSecret)
	assert.Equal(t, model.ConnectionActive, cred.Status)
}

func TestCredentialResolverReportsAbsent(t *testing.T) {
	cipher := newTestCipher(t)
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		r := NewCredentialResolver(testhelpers.NewCredentialRepositoryStub(), cipher, discardLogger())
		assert.Nil(t, r.Resolve(ctx, 1, model.SupplierCJ))
	})

	t.Run("generic supplier", func(t *testing.T) {
		r := NewCredentialResolver(testhelpers.NewCredentialRepositoryStub(), cipher, discardLogger())
		assert.Nil(t, r.Resolve(ctx, 1, model.SupplierGeneric))
	})

	t.Run("inactive", func(t *testing.T) {
		creds := testhelpers.NewCredentialRepositoryStub()
		connectSupplier(t, creds, cipher, 1, model.SupplierCJ)
		require.NoError(t, NewCredentialUseCase(creds, cipher).Disconnect(ctx, 1, model.SupplierCJ))
		r := NewCredentialResolver(creds, cipher, discardLogger())
		assert.Nil(t, r.Resolve(ctx, 1, model.SupplierCJ))
	})

	t.Run("storage failure", func(t *testing.T) {
		creds := testhelpers.NewCredentialRepositoryStub()
		creds.Err = errors.New("connection refused")
		r := NewCredentialResolver(creds, cipher, discardLogger())
		assert.Nil(t, r.Resolve(ctx, 1, model.SupplierCJ))
	})

	t.Run("sealed with another key", func(t *testing.T) {
		creds := testhelpers.NewCredentialRepositoryStub()
		foreign, err := vault.NewCipher("another-key")
		require.NoError(t, err)
		connectSupplier(t, creds, foreign, 1, model.SupplierBigBuy)
		r := NewCredentialResolver(creds, cipher, discardLogger())
		assert.Nil(t, r.Resolve(ctx, 1, model.SupplierBigBuy))
	})

	t.Run("other user", func(t *testing.T) {
		creds := testhelpers.NewCredentialRepositoryStub()
		connectSupplier(t, creds, cipher, 1, model.SupplierCJ)
		r := NewCredentialResolver(creds, cipher, discardLogger())
		assert.Nil(t, r.Resolve(ctx, 2, model.SupplierCJ))
	})
}

func TestCredentialUseCaseConnect(t *testing.T) {
	cipher := newTestCipher(t)
	creds := testhelpers.NewCredentialRepositoryStub()
	uc := NewCredentialUseCase(creds, cipher)
	ctx := context.Background()

	err := uc.Connect(ctx, 1, model.SupplierGeneric, model.CredentialInput{AccessToken: "x"})
	assert.ErrorIs(t, err, domainErrors.ErrUnsupportedSupplier)

	err = uc.Connect(ctx, 1, model.SupplierCJ, model.CredentialInput{AccessToken: "  "})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)

	require.NoError(t, uc.Connect(ctx, 1, model.SupplierCJ, model.CredentialInput{AccessToken: " abc "}))
	stored := creds.Items[model.SupplierCJ]
	require.NotNil(t, stored)
	assert.NotContains(t, string(stored.AccessTokenSeal), "abc")
	token, err := cipher.Open(stored.AccessTokenSeal)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	assert.ErrorIs(t, uc.Disconnect(ctx, 2, model.SupplierCJ), domainErrors.ErrNotFound)
	assert.ErrorIs(t, uc.Disconnect(ctx, 1, model.SupplierGeneric), domainErrors.ErrUnsupportedSupplier)
}

func TestIntegrationUseCaseShopify(t *testing.T) {
	cipher := newTestCipher(t)
	repo := testhelpers.NewIntegrationRepositoryStub()
	uc := NewIntegrationUseCase(repo, cipher)
	ctx := context.Background()

	_, err := uc.ConnectShopify(ctx, 1, "", "token")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)

	_, err = uc.Shopify(ctx, 1)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)

	in, err := uc.ConnectShopify(ctx, 1, "https://demo.myshopify.com/", "shpat_1")
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", in.ShopDomain)
	assert.Equal(t, int64(1), in.ID)

	got, err := uc.Shopify(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "shpat_1", got.AccessToken)
	assert.Equal(t, model.PlatformShopify, got.Platform)
}
