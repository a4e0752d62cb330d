package registry

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

// memStore is an in-memory Store with content-hash tokens, mimicking
// the contents-API sha semantics.
type memStore struct {
	data    []byte
	rev     int
	puts    int
	failPut error
}

func (m *memStore) Fetch(_ context.Context) (*AdminRegistry, string, error) {
	if m.data == nil {
		return &AdminRegistry{SchemaVersion: SchemaVersion, Repos: []Entry{}}, "", nil
	}
	var reg AdminRegistry
	if err := json.Unmarshal(m.data, &reg); err != nil {
		return nil, "", err
	}
	return &reg, strconv.Itoa(m.rev), nil
}

func (m *memStore) Put(_ context.Context, registry *AdminRegistry, token string) error {
	if m.failPut != nil {
		return m.failPut
	}
	current := ""
	if m.data != nil {
		current = strconv.Itoa(m.rev)
	}
	if token != current {
		return ErrConflict
	}
	data, err := json.Marshal(registry)
	if err != nil {
		return err
	}
	m.data = data
	m.rev++
	m.puts++
	return nil
}

func TestUpsert_RegistersNewRepo(t *testing.T) {
	store := &memStore{}

	outcome, err := Upsert(context.Background(), store, "example-org", "demo-repo", "PVT_123", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, Registered, outcome)

	reg, _, err := store.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, reg.Repos, 1)
	entry := reg.Repos[0]
	assert.Equal(t, "demo-repo", entry.Name)
	assert.Equal(t, "example-org", entry.Org)
	require.NotNil(t, entry.ProjectID)
	assert.Equal(t, "PVT_123", *entry.ProjectID)
	assert.Equal(t, "2026-05-10T08:00:00Z", entry.RegisteredAt)
	assert.Equal(t, "2026-05-10T08:00:00Z", reg.UpdatedAt)
}

func TestUpsert_IsIdempotent(t *testing.T) {
	store := &memStore{}

	outcome, err := Upsert(context.Background(), store, "example-org", "demo-repo", "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, Registered, outcome)

	outcome, err = Upsert(context.Background(), store, "example-org", "demo-repo", "", fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, AlreadyRegistered, outcome)

	reg, _, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, reg.Repos, 1, "second upsert must not duplicate")
	assert.Equal(t, 1, store.puts, "no-op upsert must not write")
}

func TestUpsert_EmptyProjectIDIsNull(t *testing.T) {
	store := &memStore{}

	_, err := Upsert(context.Background(), store, "example-org", "demo-repo", "", fixedNow)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(store.data, &doc))
	assert.Contains(t, string(doc["repos"]), `"project_id":null`)
}

func TestUpsert_ConflictSurfacesDistinctly(t *testing.T) {
	store := &memStore{failPut: ErrConflict}

	_, err := Upsert(context.Background(), store, "example-org", "demo-repo", "", fixedNow)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpsert_RejectsInvalidNames(t *testing.T) {
	store := &memStore{}

	_, err := Upsert(context.Background(), store, "example-org", "../escape", "", fixedNow)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = Upsert(context.Background(), store, "", "demo-repo", "", fixedNow)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("demo-repo"))
	assert.NoError(t, ValidateName("Repo_2.x"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("-leading-dash"))
	assert.Error(t, ValidateName("has space"))
}

func TestLookup(t *testing.T) {
	reg := &AdminRegistry{Repos: []Entry{{Name: "a"}, {Name: "b"}}}

	entry, ok := reg.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", entry.Name)

	_, ok = reg.Lookup("c")
	assert.False(t, ok)
}
