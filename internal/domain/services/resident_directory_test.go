package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitor-pass-service/internal/domain/models"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, InterfaceRedisService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisService(client)
}

func TestResolveFallbacks(t *testing.T) {
	db := openTestDB(t)
	dir := NewResidentDirectory(db, nil, 0)
	ctx := context.Background()

	unknown := dir.Resolve(ctx, 999)
	assert.Equal(t, ResidentProjection{Name: UnknownResident, Location: UnknownLocation}, unknown)

	noUnit := seedResident(t, db, "Maria", "maria@example.com", "")
	assert.Equal(t, ResidentProjection{Name: "Maria", Location: UnknownLocation}, dir.Resolve(ctx, noUnit.ID))

	nameless := seedResident(t, db, "", "nameless@example.com", "Tower B - 3A")
	assert.Equal(t, ResidentProjection{Name: UnknownResident, Location: "Tower B - 3A"}, dir.Resolve(ctx, nameless.ID))
}

func TestResolveUsesFirstUnit(t *testing.T) {
	db := openTestDB(t)
	resident := seedResident(t, db, "Maria", "maria@example.com", "Tower A - 12B")
	second := models.Unit{Name: "Tower C - 1A"}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Model(resident).Association("Units").Append(&second))

	got := NewResidentDirectory(db, nil, 0).Resolve(context.Background(), resident.ID)
	assert.Equal(t, "Tower A - 12B", got.Location)
}

func TestResolveCachesInRedis(t *testing.T) {
	db := openTestDB(t)
	mr, cache := newMiniRedis(t)
	resident := seedResident(t, db, "Maria", "maria@example.com", "Tower A - 12B")
	dir := NewResidentDirectory(db, cache, 5*time.Minute)
	ctx := context.Background()

	key := fmt.Sprintf("resident_projection:%d", resident.ID)

	first := dir.Resolve(ctx, resident.ID)
	assert.Equal(t, "Tower A - 12B", first.Location)
	assert.True(t, mr.Exists(key))

	require.NoError(t, db.Model(&models.Unit{}).Where("name = ?", "Tower A - 12B").Update("name", "Tower A - 14C").Error)
	assert.Equal(t, "Tower A - 12B", dir.Resolve(ctx, resident.ID).Location)

	dir.Invalidate(ctx, resident.ID)
	assert.Equal(t, "Tower A - 14C", dir.Resolve(ctx, resident.ID).Location)

	mr.FastForward(6 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestResolveUnknownIsNotCached(t *testing.T) {
	db := openTestDB(t)
	mr, cache := newMiniRedis(t)
	dir := NewResidentDirectory(db, cache, time.Minute)

	dir.Resolve(context.Background(), 404)
	assert.False(t, mr.Exists("resident_projection:404"))
}

func TestResolveWithoutUnitIsNotCached(t *testing.T) {
	db := openTestDB(t)
	mr, cache := newMiniRedis(t)
	resident := seedResident(t, db, "Maria", "maria@example.com", "")
	dir := NewResidentDirectory(db, cache, time.Minute)
	ctx := context.Background()
	key := fmt.Sprintf("resident_projection:%d", resident.ID)

	assert.Equal(t, UnknownLocation, dir.Resolve(ctx, resident.ID).Location)
	assert.False(t, mr.Exists(key))

	unit := models.Unit{Name: "Tower A - 12B"}
	require.NoError(t, db.Create(&unit).Error)
	require.NoError(t, db.Model(resident).Association("Units").Append(&unit))

	assert.Equal(t, "Tower A - 12B", dir.Resolve(ctx, resident.ID).Location)
	assert.True(t, mr.Exists(key))
}

func TestResolveSurvivesRedisOutage(t *testing.T) {
	db := openTestDB(t)
	mr, cache := newMiniRedis(t)
	resident := seedResident(t, db, "Maria", "maria@example.com", "Tower A - 12B")
	mr.Close()

	got := NewResidentDirectory(db, cache, time.Minute).Resolve(context.Background(), resident.ID)
	assert.Equal(t, "Tower A - 12B", got.Location)
}
