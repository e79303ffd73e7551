package provisioning

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/config"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/memory"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/sqlite"
)

const sampleFile = `
apiVersion: 1
contactPoints:
  - name: ops
    receivers:
      - uid: discord-ops
        type: discord
        settings:
          url: http://discord.example.com/hook
          avatar_url: http://example.com/a.png
      - type: pagerduty
        disableResolveMessage: true
        settings:
          integrationKey: abc
          details:
            Runbook: http://runbooks/cpu
deleteContactPoints:
  - name: legacy
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	cps := f.ContactPoints()
	require.Len(t, cps, 1)
	ops := cps[0]
	assert.Equal(t, "ops", ops.Name)
	require.Len(t, ops.Integrations, 2)

	assert.Equal(t, "discord-ops", ops.Integrations[0].UID)
	assert.Equal(t, "ops", ops.Integrations[0].Name)
	assert.Equal(t, "http://example.com/a.png", ops.Integrations[0].Settings["avatar_url"])

	pd := ops.Integrations[1]
	assert.NotEmpty(t, pd.UID)
	assert.True(t, pd.DisableResolveMessage)
	// Keys keep their case.
	assert.Equal(t, "abc", pd.Settings["integrationKey"])
	details, ok := pd.Settings["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://runbooks/cpu", details["Runbook"])

	assert.Equal(t, []string{"legacy"}, f.Deletes())
}

func TestParse_StableGeneratedUIDs(t *testing.T) {
	a, err := Parse([]byte(sampleFile))
	require.NoError(t, err)
	b, err := Parse([]byte(sampleFile))
	require.NoError(t, err)
	assert.Equal(t, a.ContactPoints()[0].Integrations[1].UID, b.ContactPoints()[0].Integrations[1].UID)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "unknown field", doc: "contactPoint: []\n", wantErr: "field contactPoint not found"},
		{name: "bad version", doc: "apiVersion: 2\n", wantErr: "unsupported apiVersion 2"},
		{name: "missing name", doc: "contactPoints:\n  - receivers: []\n", wantErr: "contactPoints[0].name"},
		{name: "duplicate", doc: "contactPoints:\n  - name: a\n  - name: a\n", wantErr: "duplicate contact point name: a"},
		{name: "missing type", doc: "contactPoints:\n  - name: a\n    receivers:\n      - settings: {}\n", wantErr: "receivers[0].type"},
		{name: "invalid yaml", doc: "contactPoints: [\n", wantErr: "decoding contact points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.ContactPoints())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact-points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.ContactPointSpecs, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFromReceivers(t *testing.T) {
	cps := FromReceivers([]config.ReceiverConfig{{
		Name: "ops",
		Integrations: []config.IntegrationConfig{
			{Type: "slack", Settings: map[string]any{"url": "http://x"}},
			{UID: "fixed", Name: "mail", Type: "email", DisableResolveMessage: true},
		},
	}})

	require.Len(t, cps, 1)
	require.Len(t, cps[0].Integrations, 2)
	assert.Equal(t, "ops", cps[0].Integrations[0].Name)
	assert.Equal(t, integrationUID("ops", 0, ""), cps[0].Integrations[0].UID)
	assert.Equal(t, "fixed", cps[0].Integrations[1].UID)
	assert.Equal(t, "mail", cps[0].Integrations[1].Name)
	assert.NotNil(t, cps[0].Integrations[1].Settings)
}

func TestProvisioner_Sync(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewContactPointRepository()
	p := NewProvisioner(repo, memory.TransactionManager{}, logger.Nop())

	require.NoError(t, repo.Save(ctx, entity.NewContactPoint("stale")))
	require.NoError(t, repo.Save(ctx, entity.NewContactPoint("legacy")))

	desired := []*entity.ContactPoint{
		entity.NewContactPoint("ops", entity.IntegrationConfig{UID: "a", Type: "discord"}),
		entity.NewContactPoint("legacy"),
	}
	require.NoError(t, p.Sync(ctx, desired, []string{"legacy"}))

	cps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, "ops", cps[0].Name)
}

func TestProvisioner_SyncRejectsDuplicates(t *testing.T) {
	p := NewProvisioner(memory.NewContactPointRepository(), memory.TransactionManager{}, logger.Nop())
	err := p.Sync(context.Background(), []*entity.ContactPoint{
		entity.NewContactPoint("ops"),
		entity.NewContactPoint("ops"),
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestProvisioner_SyncSQLiteIsAtomic(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repo := sqlite.NewContactPointRepository(db)
	p := NewProvisioner(repo, db, logger.Nop())

	require.NoError(t, p.Sync(ctx, []*entity.ContactPoint{
		entity.NewContactPoint("ops", entity.IntegrationConfig{UID: "a", Type: "discord"}),
	}, nil))

	// The second contact point reuses a UID, so the whole sync must roll back.
	err = p.Sync(ctx, []*entity.ContactPoint{
		entity.NewContactPoint("dev", entity.IntegrationConfig{UID: "x", Type: "slack"}),
		entity.NewContactPoint("qa", entity.IntegrationConfig{UID: "x", Type: "slack"}),
	}, nil)
	require.Error(t, err)

	cps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, "ops", cps[0].Name)
}
