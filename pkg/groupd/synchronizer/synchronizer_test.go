package synchronizer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/craigwongva/pz-access/pkg/geoserver"
	"github.com/craigwongva/pz-access/pkg/groupd/database"
	"github.com/craigwongva/pz-access/pkg/groupd/synchronizer"
	"github.com/craigwongva/pz-access/pkg/layergroup"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	created    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	errGeneric = errors.New("oops")
)

func fixedID(id string) func() string {
	return func() string { return id }
}

func fixedTime() time.Time {
	return created
}

func newMocked(t *testing.T) (*synchronizer.Synchronizer, *database.MockDeploymentGroupStore, *geoserver.MockClient) {
	registry := database.NewMockDeploymentGroupStore(t)
	client := geoserver.NewMockClient(t)
	s := synchronizer.New(synchronizer.Config{
		Registry: registry,
		Client:   client,
		NewID:    fixedID("g1"),
		Now:      fixedTime,
	})
	return s, registry, client
}

func layerGroup(name string, layers []string, styles []string) *layergroup.LayerGroup {
	return &layergroup.LayerGroup{Name: name, Layers: layers, Styles: styles}
}

func syncError(statusCode int) error {
	return &geoserver.SyncError{Group: "g1", StatusCode: statusCode, Body: http.StatusText(statusCode)}
}

func TestCreateEmpty(t *testing.T) {
	s, registry, _ := newMocked(t)

	expected := database.DeploymentGroup{
		ID:        "g1",
		CreatedBy: "alice",
		Created:   created,
		Lifecycle: database.LifecycleUnmaterialized,
	}
	registry.On("InsertDeploymentGroup", mock.Anything, expected).Return(nil).Once()

	group, err := s.CreateEmpty(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, expected, *group)
	assert.False(t, group.HasRemoteResource())
}

func TestCreateEmptyRegistryFailure(t *testing.T) {
	s, registry, _ := newMocked(t)

	registry.On("InsertDeploymentGroup", mock.Anything, mock.Anything).Return(errGeneric).Once()

	group, err := s.CreateEmpty(context.Background(), "alice")
	assert.Nil(t, group)
	assert.ErrorIs(t, err, errGeneric)
}

func TestCreateWithLayers(t *testing.T) {
	s, registry, client := newMocked(t)

	client.On("Create", mock.Anything, layerGroup("g1", []string{"layerA", "layerB"}, []string{"", ""})).Return(nil).Once()
	registry.On("InsertDeploymentGroup", mock.Anything, database.DeploymentGroup{
		ID:        "g1",
		CreatedBy: "alice",
		Created:   created,
		Lifecycle: database.LifecycleMaterialized,
	}).Return(nil).Once()

	group, err := s.CreateWithLayers(context.Background(), []string{"layerA", "layerB", "layerA"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "g1", group.ID)
	assert.True(t, group.HasRemoteResource())
}

func TestCreateWithLayersRemoteFailurePersistsNothing(t *testing.T) {
	s, _, client := newMocked(t)

	client.On("Create", mock.Anything, mock.Anything).Return(syncError(http.StatusInternalServerError)).Once()

	group, err := s.CreateWithLayers(context.Background(), []string{"layerA"}, "alice")
	assert.Nil(t, group)

	remoteError := &geoserver.SyncError{}
	require.True(t, errors.As(err, &remoteError))
	assert.Equal(t, http.StatusInternalServerError, remoteError.StatusCode)
}

func TestCreateWithLayersBuildErrorBeforeRemoteCall(t *testing.T) {
	s, _, _ := newMocked(t)

	group, err := s.CreateWithLayers(context.Background(), []string{"layerA", "bad layer"}, "alice")
	assert.Nil(t, group)

	buildError := &layergroup.BuildError{}
	require.True(t, errors.As(err, &buildError))
	assert.Equal(t, "bad layer", buildError.Layer)
}

func TestCreateWithoutLayersCreatesEmptyGroup(t *testing.T) {
	s, registry, _ := newMocked(t)

	registry.On("InsertDeploymentGroup", mock.Anything, mock.MatchedBy(func(group database.DeploymentGroup) bool {
		return group.Lifecycle == database.LifecycleUnmaterialized
	})).Return(nil).Once()

	group, err := s.CreateWithLayers(context.Background(), nil, "alice")
	require.NoError(t, err)
	assert.False(t, group.HasRemoteResource())
}

func TestMergeUnmaterialized(t *testing.T) {
	for _, lifecycle := range []database.Lifecycle{database.LifecycleUnmaterialized, database.LifecycleMaterializationFailed} {
		t.Run(string(lifecycle), func(t *testing.T) {
			s, registry, client := newMocked(t)
			group := &database.DeploymentGroup{ID: "g1", Lifecycle: lifecycle}

			client.On("Create", mock.Anything, layerGroup("g1", []string{"layerA"}, []string{""})).Return(nil).Once()
			registry.On("SetLifecycle", mock.Anything, "g1", database.LifecycleMaterialized).Return(nil).Once()

			err := s.Merge(context.Background(), group, []string{"layerA"})
			require.NoError(t, err)
			assert.True(t, group.HasRemoteResource())
		})
	}
}

func TestMergeUnmaterializedCreateFailureIsRetrySafe(t *testing.T) {
	s, registry, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleUnmaterialized}

	client.On("Create", mock.Anything, mock.Anything).Return(syncError(http.StatusInternalServerError)).Once()
	registry.On("SetLifecycle", mock.Anything, "g1", database.LifecycleMaterializationFailed).Return(nil).Once()

	err := s.Merge(context.Background(), group, []string{"layerA"})
	remoteError := &geoserver.SyncError{}
	require.True(t, errors.As(err, &remoteError))
	assert.False(t, group.HasRemoteResource())
	assert.Equal(t, database.LifecycleMaterializationFailed, group.Lifecycle)

	// The next merge tries to create the layer group again.
	client.On("Create", mock.Anything, layerGroup("g1", []string{"layerA"}, []string{""})).Return(nil).Once()
	registry.On("SetLifecycle", mock.Anything, "g1", database.LifecycleMaterialized).Return(nil).Once()

	err = s.Merge(context.Background(), group, []string{"layerA"})
	require.NoError(t, err)
	assert.True(t, group.HasRemoteResource())
}

func TestMergeUnmaterializedLifecycleFailureKeepsSyncError(t *testing.T) {
	s, registry, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleUnmaterialized}

	client.On("Create", mock.Anything, mock.Anything).Return(syncError(http.StatusBadGateway)).Once()
	registry.On("SetLifecycle", mock.Anything, "g1", database.LifecycleMaterializationFailed).Return(errGeneric).Once()

	err := s.Merge(context.Background(), group, []string{"layerA"})
	remoteError := &geoserver.SyncError{}
	require.True(t, errors.As(err, &remoteError))
	assert.Equal(t, http.StatusBadGateway, remoteError.StatusCode)
	assert.Equal(t, database.LifecycleUnmaterialized, group.Lifecycle)
}

func TestMergeUnmaterializedEncodingErrorKeepsLifecycle(t *testing.T) {
	s, _, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleUnmaterialized}

	// Nothing reached GeoServer, so the lifecycle is not touched.
	client.On("Create", mock.Anything, mock.Anything).Return(&layergroup.EncodingError{Group: "g1", Err: errGeneric}).Once()

	err := s.Merge(context.Background(), group, []string{"layerA"})
	encodingError := &layergroup.EncodingError{}
	require.True(t, errors.As(err, &encodingError))
	assert.Equal(t, database.LifecycleUnmaterialized, group.Lifecycle)
}

func TestMergeUnmaterializedPersistsLifecycleAfterCancel(t *testing.T) {
	s, registry, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleUnmaterialized}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil).Once()
	registry.On("SetLifecycle", mock.Anything, "g1", database.LifecycleMaterialized).Return(func(ctx context.Context, _ string, _ database.Lifecycle) error {
		return ctx.Err()
	}).Once()

	err := s.Merge(ctx, group, []string{"layerA"})
	require.NoError(t, err)
	assert.True(t, group.HasRemoteResource())
}

func TestMergeUnmaterializedBadLayer(t *testing.T) {
	s, _, _ := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleUnmaterialized}

	err := s.Merge(context.Background(), group, []string{"bad layer"})

	remoteError := &geoserver.SyncError{}
	assert.True(t, errors.As(err, &remoteError))
	buildError := &layergroup.BuildError{}
	assert.True(t, errors.As(err, &buildError))
	assert.Equal(t, database.LifecycleUnmaterialized, group.Lifecycle)
}

func TestMergeMaterialized(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	s, _, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

	client.On("Fetch", mock.Anything, "g1").Return(layerGroup("g1", []string{"layerA", "layerB"}, []string{"", ""}), nil).Once()
	client.On("Update", mock.Anything, layerGroup("g1", []string{"layerA", "layerB", "layerC"}, []string{"", "", ""})).Return(nil).Once()

	err := s.Merge(context.Background(), group, []string{"layerB", "layerC"})
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "merge", entry.Data["operation"])
	assert.Equal(t, "g1", entry.Data["deployment_group"])
}

func TestMergeMaterializedWritesToOwnLayerGroup(t *testing.T) {
	s, _, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

	// GeoServer answered without a name.
	client.On("Fetch", mock.Anything, "g1").Return(layerGroup("", []string{"layerA"}, []string{""}), nil).Once()
	client.On("Update", mock.Anything, layerGroup("g1", []string{"layerA", "layerB"}, []string{"", ""})).Return(nil).Once()

	err := s.Merge(context.Background(), group, []string{"layerB"})
	require.NoError(t, err)
}

func TestMergeMaterializedRepairsStyles(t *testing.T) {
	s, _, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

	client.On("Fetch", mock.Anything, "g1").Return(layerGroup("g1", []string{"layerA"}, []string{"polygon", "point", "line"}), nil).Once()
	client.On("Update", mock.Anything, layerGroup("g1", []string{"layerA", "layerB"}, []string{"point", "line"})).Return(nil).Once()

	err := s.Merge(context.Background(), group, []string{"layerB"})
	require.NoError(t, err)
}

func TestMergeMaterializedIsIdempotent(t *testing.T) {
	s, _, client := newMocked(t)
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

	client.On("Fetch", mock.Anything, "g1").Return(func(context.Context, string) (*layergroup.LayerGroup, error) {
		return layerGroup("g1", []string{"layerA", "layerB"}, []string{"", ""}), nil
	}).Twice()
	client.On("Update", mock.Anything, layerGroup("g1", []string{"layerA", "layerB"}, []string{"", ""})).Return(nil).Twice()

	require.NoError(t, s.Merge(context.Background(), group, []string{"layerB", "layerA"}))
	require.NoError(t, s.Merge(context.Background(), group, []string{"layerB", "layerA"}))
}

func TestMergeMaterializedFailures(t *testing.T) {
	t.Run("fetch not found is an error", func(t *testing.T) {
		s, _, client := newMocked(t)
		group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

		client.On("Fetch", mock.Anything, "g1").Return(nil, syncError(http.StatusNotFound)).Once()

		err := s.Merge(context.Background(), group, []string{"layerA"})
		remoteError := &geoserver.SyncError{}
		require.True(t, errors.As(err, &remoteError))
		assert.Equal(t, http.StatusNotFound, remoteError.StatusCode)
	})

	t.Run("bad layer", func(t *testing.T) {
		s, _, client := newMocked(t)
		group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

		client.On("Fetch", mock.Anything, "g1").Return(layerGroup("g1", []string{"layerA"}, []string{""}), nil).Once()

		err := s.Merge(context.Background(), group, []string{"layerB", "bad layer"})
		remoteError := &geoserver.SyncError{}
		assert.True(t, errors.As(err, &remoteError))
		buildError := &layergroup.BuildError{}
		assert.True(t, errors.As(err, &buildError))
	})

	t.Run("update rejected", func(t *testing.T) {
		s, _, client := newMocked(t)
		group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

		client.On("Fetch", mock.Anything, "g1").Return(layerGroup("g1", []string{"layerA"}, []string{""}), nil).Once()
		client.On("Update", mock.Anything, mock.Anything).Return(syncError(http.StatusInternalServerError)).Once()

		err := s.Merge(context.Background(), group, []string{"layerB"})
		remoteError := &geoserver.SyncError{}
		require.True(t, errors.As(err, &remoteError))
		assert.True(t, group.HasRemoteResource())
	})
}

func TestDelete(t *testing.T) {
	group := &database.DeploymentGroup{ID: "g1", Lifecycle: database.LifecycleMaterialized}

	t.Run("removed from GeoServer", func(t *testing.T) {
		s, registry, client := newMocked(t)
		client.On("Delete", mock.Anything, "g1").Return(nil).Once()
		registry.On("DeleteDeploymentGroup", mock.Anything, "g1").Return(nil).Once()

		assert.NoError(t, s.Delete(context.Background(), group))
	})

	t.Run("already absent from GeoServer", func(t *testing.T) {
		s, registry, client := newMocked(t)
		client.On("Delete", mock.Anything, "g1").Return(fmt.Errorf("delete layer group g1: %w", geoserver.ErrNotFound)).Once()
		registry.On("DeleteDeploymentGroup", mock.Anything, "g1").Return(nil).Once()

		assert.NoError(t, s.Delete(context.Background(), group))
	})

	t.Run("GeoServer failure keeps the record", func(t *testing.T) {
		s, _, client := newMocked(t)
		client.On("Delete", mock.Anything, "g1").Return(syncError(http.StatusInternalServerError)).Once()

		err := s.Delete(context.Background(), group)
		remoteError := &geoserver.SyncError{}
		require.True(t, errors.As(err, &remoteError))
		assert.Equal(t, http.StatusInternalServerError, remoteError.StatusCode)
	})

	t.Run("registry failure", func(t *testing.T) {
		s, registry, client := newMocked(t)
		client.On("Delete", mock.Anything, "g1").Return(nil).Once()
		registry.On("DeleteDeploymentGroup", mock.Anything, "g1").Return(errGeneric).Once()

		assert.ErrorIs(t, s.Delete(context.Background(), group), errGeneric)
	})
}

func TestDefaultIdentifiers(t *testing.T) {
	registry := database.NewMockDeploymentGroupStore(t)
	s := synchronizer.New(synchronizer.Config{
		Registry: registry,
		Client:   geoserver.NewMockClient(t),
	})

	registry.On("InsertDeploymentGroup", mock.Anything, mock.Anything).Return(nil).Twice()

	first, err := s.CreateEmpty(context.Background(), "alice")
	require.NoError(t, err)
	second, err := s.CreateEmpty(context.Background(), "alice")
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.Created.IsZero())
}
