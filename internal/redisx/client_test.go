package redisx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Orders int `json:"orders"`
}

func TestCache_GetJSON_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db, time.Minute)

	mock.ExpectGet("dashboard:summary").SetVal(`{"orders":7}`)

	var got summary
	found, err := c.GetJSON(context.Background(), "dashboard:summary", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, got.Orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetJSON_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db, time.Minute)

	mock.ExpectGet("dashboard:summary").RedisNil()

	var got summary
	found, err := c.GetJSON(context.Background(), "dashboard:summary", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetJSON_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db, time.Minute)

	mock.ExpectGet("dashboard:summary").SetErr(errors.New("conn refused"))

	var got summary
	found, err := c.GetJSON(context.Background(), "dashboard:summary", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestCache_SetJSON(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db, 30*time.Second)

	mock.ExpectSet("dashboard:summary", `{"orders":3}`, 30*time.Second).SetVal("OK")

	require.NoError(t, c.SetJSON(context.Background(), "dashboard:summary", summary{Orders: 3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_DeleteByPattern(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCache(db, time.Minute)

	mock.ExpectScan(0, KeyDashboardPrefix, 100).SetVal([]string{"dashboard:summary"}, 42)
	mock.ExpectDel("dashboard:summary").SetVal(1)
	mock.ExpectScan(42, KeyDashboardPrefix, 100).SetVal([]string{"dashboard:sales:day", "dashboard:top:5"}, 0)
	mock.ExpectDel("dashboard:sales:day", "dashboard:top:5").SetVal(2)

	n, err := c.DeleteByPattern(context.Background(), KeyDashboardPrefix)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	key := fmt.Sprintf(KeyDedup, "stockwatch", "evt-1")

	mock.ExpectExists(key).SetVal(0)
	mock.ExpectExists(key).SetVal(1)

	first, err := Exists(context.Background(), db, key)
	require.NoError(t, err)
	second, err := Exists(context.Background(), db, key)
	require.NoError(t, err)

	assert.False(t, first)
	assert.True(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
