package registry_test

import (
	"testing"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/platform"
	"codeberg.org/mutker/deviceapi/internal/provider"
	"codeberg.org/mutker/deviceapi/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	id int
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := registry.New(platform.Generic)

	err := r.Register(registry.ContractHealth, func() (any, error) {
		return &fakeProvider{}, nil
	}, registry.Singleton)
	require.NoError(t, err)

	err = r.Register(registry.ContractHealth, func() (any, error) {
		return &fakeProvider{}, nil
	}, registry.Singleton)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, registry.ErrDuplicateRegistration))
}

func TestRegisterWithOverrideReplaces(t *testing.T) {
	r := registry.New(platform.Generic)

	require.NoError(t, r.RegisterInstance(registry.ContractHealth, &fakeProvider{id: 1}))
	require.NoError(t, r.RegisterInstance(registry.ContractHealth, &fakeProvider{id: 2}, registry.WithOverride()))

	got, err := registry.Resolve[*fakeProvider](r, registry.ContractHealth)
	require.NoError(t, err)
	assert.Equal(t, 2, got.id)
}

func TestResolveUnboundIsCapabilityUnavailable(t *testing.T) {
	r := registry.New(platform.Generic)

	_, err := r.Resolve(registry.ContractCamera)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, registry.ErrUnresolvedDependency))
}

func TestSingletonReturnsSameInstance(t *testing.T) {
	r := registry.New(platform.Generic)

	calls := 0
	require.NoError(t, r.Register(registry.ContractHealth, func() (any, error) {
		calls++
		return &fakeProvider{id: calls}, nil
	}, registry.Singleton))

	first, err := r.Resolve(registry.ContractHealth)
	require.NoError(t, err)
	second, err := r.Resolve(registry.ContractHealth)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestTransientReturnsFreshInstance(t *testing.T) {
	r := registry.New(platform.Generic)

	calls := 0
	require.NoError(t, r.Register(registry.ContractScreenshot, func() (any, error) {
		calls++
		return &fakeProvider{id: calls}, nil
	}, registry.Transient))

	first, err := r.Resolve(registry.ContractScreenshot)
	require.NoError(t, err)
	second, err := r.Resolve(registry.ContractScreenshot)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)
}

func TestResolveTypedMismatch(t *testing.T) {
	r := registry.New(platform.Generic)
	require.NoError(t, r.RegisterInstance(registry.ContractHealth, &fakeProvider{}))

	_, err := registry.Resolve[provider.CameraProvider](r, registry.ContractHealth)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, registry.ErrWrongType))
}

func TestValidateAfterPopulate(t *testing.T) {
	for _, p := range []platform.Platform{platform.MacOS, platform.OrangePi, platform.Generic} {
		r := registry.New(p)
		require.NoError(t, registry.Populate(r), "populate %s", p)
		assert.Empty(t, r.Validate(), "platform %s should have no missing baseline contracts", p)
	}
}

func TestValidateReportsMissing(t *testing.T) {
	r := registry.New(platform.OrangePi)

	missing := r.Validate()
	assert.ElementsMatch(t, []registry.Contract{
		registry.ContractHealth,
		registry.ContractScreenshot,
		registry.ContractPlayer,
		registry.ContractAction,
	}, missing)
}

func TestPopulateBindsHealthProvider(t *testing.T) {
	r := registry.New(platform.OrangePi)
	require.NoError(t, registry.Populate(r))

	hp, err := registry.Resolve[provider.HealthProvider](r, registry.ContractHealth)
	require.NoError(t, err)
	assert.NotNil(t, hp)
}
