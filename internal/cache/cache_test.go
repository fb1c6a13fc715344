package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/model"
)

func TestKey(t *testing.T) {
	k := Key("POLICY NUMBER: 1", "abc123")
	assert.True(t, strings.HasPrefix(k, "claimflow:abc123:"))
	assert.Len(t, k, len("claimflow:abc123:")+64)

	assert.Equal(t, k, Key("POLICY NUMBER: 1", "abc123"))
	assert.NotEqual(t, k, Key("POLICY NUMBER: 2", "abc123"))
	assert.NotEqual(t, k, Key("POLICY NUMBER: 1", "def456"))
}

func TestMemory_SetGetDelete(t *testing.T) {
	c := NewMemory(time.Minute, time.Minute)

	_, found := c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	assert.Zero(t, c.Len())
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))

	time.Sleep(5 * time.Millisecond)
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestDisk_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDisk(dir, time.Hour)

	require.NoError(t, c.Set("claimflow:v:abc", []byte("payload"), 0))
	got, found := c.Get("claimflow:v:abc")
	require.True(t, found)
	assert.Equal(t, []byte("payload"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, ".cache", filepath.Ext(entries[0].Name()))

	require.NoError(t, c.Delete("claimflow:v:abc"))
	_, found = c.Get("claimflow:v:abc")
	assert.False(t, found)

	assert.NoError(t, c.Delete("never-set"))
}

func TestDisk_Expired(t *testing.T) {
	c := NewDisk(t.TempDir(), time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))

	now = now.Add(2 * time.Minute)
	_, found := c.Get("k")
	assert.False(t, found)

	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")
}

func TestDisk_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := NewDisk(dir, time.Hour)
	require.NoError(t, os.WriteFile(c.path("k"), []byte("{not json"), 0o644))

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestDisk_Clear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDisk(dir, time.Hour)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	require.NoError(t, c.Clear())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	mem := NewMemory(time.Minute, time.Minute)
	disk := NewDisk(t.TempDir(), time.Hour)
	c := NewLayered(mem, disk)

	require.NoError(t, disk.Set("k", []byte("v"), 0))
	_, found := mem.Get("k")
	require.False(t, found)

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)

	got, found = mem.Get("k")
	require.True(t, found, "disk hit should be promoted")
	assert.Equal(t, []byte("v"), got)
}

func TestLayered_SetDeleteBothLayers(t *testing.T) {
	mem := NewMemory(time.Minute, time.Minute)
	disk := NewDisk(t.TempDir(), time.Hour)
	c := NewLayered(mem, disk)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, inMem := mem.Get("k")
	_, onDisk := disk.Get("k")
	assert.True(t, inMem)
	assert.True(t, onDisk)

	require.NoError(t, c.Delete("k"))
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestFromConfig(t *testing.T) {
	cfg := model.CacheConfig{Enabled: false}
	assert.Nil(t, FromConfig(cfg))

	cfg = model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}
	c := FromConfig(cfg)
	require.NotNil(t, c)
	assert.IsType(t, &Layered{}, c)
}

func sampleRecord() model.ClaimRecord {
	return model.ClaimRecord{
		PolicyInfo:   model.PolicyInfo{PolicyNumber: "PA-7"},
		AssetDetails: model.AssetDetails{AssetType: model.DefaultAssetType, EstimatedDamage: model.NewAmount(999.5)},
		OtherFields:  model.OtherFields{ClaimType: model.ClaimTypePropertyDamage},
	}
}

func TestRecordCache_RoundTrip(t *testing.T) {
	rc := NewRecordCache(NewMemory(time.Minute, time.Minute), "v1", time.Hour)

	_, found := rc.Load("text")
	assert.False(t, found)

	require.NoError(t, rc.Save("text", sampleRecord()))
	got, found := rc.Load("text")
	require.True(t, found)
	assert.Equal(t, sampleRecord(), got)
}

func TestRecordCache_VersionScoping(t *testing.T) {
	backend := NewMemory(time.Minute, time.Minute)
	require.NoError(t, NewRecordCache(backend, "v1", 0).Save("text", sampleRecord()))

	_, found := NewRecordCache(backend, "v2", 0).Load("text")
	assert.False(t, found)
}

func TestRecordCache_CorruptEntryDropped(t *testing.T) {
	backend := NewMemory(time.Minute, time.Minute)
	require.NoError(t, backend.Set(Key("text", "v1"), []byte("garbage"), 0))

	rc := NewRecordCache(backend, "v1", 0)
	_, found := rc.Load("text")
	assert.False(t, found)

	_, stillThere := backend.Get(Key("text", "v1"))
	assert.False(t, stillThere)
}

func TestRecordCache_NilBackend(t *testing.T) {
	rc := NewRecordCache(nil, "v1", 0)
	assert.NoError(t, rc.Save("text", sampleRecord()))
	_, found := rc.Load("text")
	assert.False(t, found)

	var none *RecordCache
	_, found = none.Load("text")
	assert.False(t, found)
}
