package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCredentialFixture(t *testing.T, valid map[string]bool) (CredentialService, *dao.MemoryStore, *fakeValidator) {
	t.Helper()
	store := dao.NewMemoryStore()
	v := newFakeValidator(valid)
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 2, QueueSize: 8}, zap.NewNop())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	return NewCredentialService(store, v, pool, zap.NewNop()), store, v
}

func TestCredential_GetDefaultsModel(t *testing.T) {
	svc, _, _ := newCredentialFixture(t, nil)
	cred, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultModel, cred.Model)
	assert.Empty(t, cred.APIKey)
	assert.Nil(t, cred.Valid)
}

func TestCredential_Models(t *testing.T) {
	svc, _, _ := newCredentialFixture(t, nil)
	models := svc.Models()
	require.Len(t, models, 4)
	assert.Equal(t, "mistral-small-latest", models[0].ID)

	models[0].ID = "changed"
	assert.Equal(t, "mistral-small-latest", svc.Models()[0].ID)
}

func TestCredential_ValidateEmptyKeyPersistsFalse(t *testing.T) {
	svc, store, v := newCredentialFixture(t, nil)
	ok, err := svc.Validate(context.Background(), 1, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v.calls.Load())

	flag, _, _ := store.Get(context.Background(), 1, domain.KeyAPIKeyValid)
	assert.Equal(t, "false", flag)
}

func TestCredential_SaveRejectsInvalidKey(t *testing.T) {
	svc, store, _ := newCredentialFixture(t, map[string]bool{"good": true})
	ctx := context.Background()

	err := svc.Save(ctx, 1, "bad", "open-mistral-nemo")
	assert.ErrorIs(t, err, code.ErrorAPIKeyRejected)

	_, ok, _ := store.Get(ctx, 1, domain.KeyAPIKey)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, 1, domain.KeyModel)
	assert.False(t, ok)
}

func TestCredential_SaveValidKey(t *testing.T) {
	svc, store, _ := newCredentialFixture(t, map[string]bool{"good": true})
	ctx := context.Background()

	var keys []string
	cancel := store.Subscribe(func(ev domain.ChangeEvent) { keys = append(keys, ev.Key) })
	defer cancel()

	require.NoError(t, svc.Save(ctx, 1, "good", "pixtral-12b-2409"))

	cred, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "good", cred.APIKey)
	assert.Equal(t, "pixtral-12b-2409", cred.Model)
	require.NotNil(t, cred.Valid)
	assert.True(t, *cred.Valid)
	assert.Equal(t, []string{domain.KeyAPIKeyValid, domain.KeyAPIKey, domain.KeyModel}, keys)
}

func TestCredential_SaveEmptyKeyMarksInvalid(t *testing.T) {
	svc, store, v := newCredentialFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, "", ""))
	assert.Zero(t, v.calls.Load())
	flag, _, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
	assert.Equal(t, "false", flag)
	model, _, _ := store.Get(ctx, 1, domain.KeyModel)
	assert.Equal(t, domain.DefaultModel, model)
}

func TestCredential_SaveUnknownModel(t *testing.T) {
	svc, _, _ := newCredentialFixture(t, map[string]bool{"good": true})
	err := svc.Save(context.Background(), 1, "good", "gpt-4")
	assert.ErrorIs(t, err, code.ErrorModelUnknown)
}

func TestCredential_StatusWithoutKey(t *testing.T) {
	svc, _, v := newCredentialFixture(t, nil)
	st, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, st.HasKey)
	assert.False(t, st.Valid)
	assert.True(t, st.Checked)
	assert.Zero(t, v.calls.Load())
}

func TestCredential_StatusValidatesWhenNoFlag(t *testing.T) {
	svc, store, v := newCredentialFixture(t, map[string]bool{"k": true})
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))

	st, err := svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.HasKey)
	assert.True(t, st.Valid)
	assert.Equal(t, int32(1), v.calls.Load())

	flag, _, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
	assert.Equal(t, "true", flag)

	// 已有状态时直接返回
	_, err = svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestCredential_StatusRevalidatesStoredFalse(t *testing.T) {
	svc, store, v := newCredentialFixture(t, map[string]bool{"k": false})
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKey, "k"))
	require.NoError(t, store.Set(ctx, 1, domain.KeyAPIKeyValid, "false"))

	v.set("k", true)
	st, err := svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.HasKey)
	assert.False(t, st.Valid)
	assert.True(t, st.Revalidating)

	require.Eventually(t, func() bool {
		flag, _, _ := store.Get(ctx, 1, domain.KeyAPIKeyValid)
		return flag == "true"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCredential_Revalidate(t *testing.T) {
	svc, store, _ := newCredentialFixture(t, map[string]bool{"k": true})
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 3, domain.KeyAPIKey, "k"))

	ok, err := svc.Revalidate(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}
