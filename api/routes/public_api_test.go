package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"downtodine/db"
	"downtodine/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orm, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(orm))

	router := gin.New()
	PublicApi(router, orm, services.NewTokenService("test-secret", time.Hour))
	return router
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	parsed := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    username + "@example.com",
		"username": username,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginMe(t *testing.T) {
	r := setupRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "alice@example.com", "username": "alice", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@example.com", user["email"])

	// Duplicate email and username both conflict.
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "alice@example.com", "username": "other", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already in use", resp["message"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "other@example.com", "username": "alice", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already in use", resp["message"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"emailOrUsername": "alice", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := resp["token"].(string)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"emailOrUsername": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", resp["username"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAvailabilityToday(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r, "alice")

	w, resp := doJSON(t, r, http.MethodPost, "/api/availability/today", token, gin.H{
		"hours": []interface{}{5, 5, 30, "3", -1},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []interface{}{float64(3), float64(5)}, resp["hours"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/availability/today", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(3), float64(5)}, resp["hours"])
	assert.NotEmpty(t, resp["date"])

	w, resp = doJSON(t, r, http.MethodDelete, "/api/availability/today", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, resp["hours"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/availability/today", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, resp["hours"])
}

func TestFriendRequestFlow(t *testing.T) {
	r := setupRouter(t)
	aliceToken := registerUser(t, r, "alice")
	bobToken := registerUser(t, r, "bob")

	w, resp := doJSON(t, r, http.MethodPost, "/api/friend-requests", aliceToken, gin.H{"toUsername": "bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["ok"])

	// Second send while pending conflicts.
	w, resp = doJSON(t, r, http.MethodPost, "/api/friend-requests", aliceToken, gin.H{"toUsername": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Request already pending", resp["message"])

	// Unknown target.
	w, _ = doJSON(t, r, http.MethodPost, "/api/friend-requests", aliceToken, gin.H{"toUsername": "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/api/friend-requests", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	incoming := resp["incoming"].([]interface{})
	require.Len(t, incoming, 1)
	request := incoming[0].(map[string]interface{})
	from := request["from"].(map[string]interface{})
	assert.Equal(t, "alice", from["username"])
	requestID := int64(request["id"].(float64))

	// Alice cannot accept her own outgoing request.
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/friend-requests/%d/accept", requestID), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/friend-requests/%d/accept", requestID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Accepting twice reads as not found.
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/friend-requests/%d/accept", requestID), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, token := range []string{aliceToken, bobToken} {
		w, resp = doJSON(t, r, http.MethodGet, "/api/friends", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp["friends"].([]interface{}), 1)
	}

	// Already friends now.
	w, _ = doJSON(t, r, http.MethodPost, "/api/friend-requests", aliceToken, gin.H{"toUsername": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFriendRequestAutoAccept(t *testing.T) {
	r := setupRouter(t)
	aliceToken := registerUser(t, r, "alice")
	bobToken := registerUser(t, r, "bob")

	w, _ := doJSON(t, r, http.MethodPost, "/api/friend-requests", bobToken, gin.H{"toUsername": "alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/friend-requests", aliceToken, gin.H{"toUsername": "bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["autoAccepted"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/friend-requests", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["incoming"])
	assert.Empty(t, resp["outgoing"])
}

func TestDirectAddAndRemoveFriend(t *testing.T) {
	r := setupRouter(t)
	aliceToken := registerUser(t, r, "alice")
	registerUser(t, r, "bob")

	w, resp := doJSON(t, r, http.MethodPost, "/api/friends", aliceToken, gin.H{"username": "bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	friends := resp["friends"].([]interface{})
	require.Len(t, friends, 1)
	bobID := int64(friends[0].(map[string]interface{})["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, "/api/friends", aliceToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/friends/%d", bobID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["friends"])

	// Idempotent removal.
	w, resp = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/friends/%d", bobID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["friends"])
}

func TestOverlapEndpoints(t *testing.T) {
	r := setupRouter(t)
	aliceToken := registerUser(t, r, "alice")
	bobToken := registerUser(t, r, "bob")

	w, resp := doJSON(t, r, http.MethodPost, "/api/friends", aliceToken, gin.H{"username": "bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	bobID := int64(resp["friends"].([]interface{})[0].(map[string]interface{})["id"].(float64))

	_, _ = doJSON(t, r, http.MethodPost, "/api/availability/today", aliceToken, gin.H{"hours": []int{9, 10, 11}})
	_, _ = doJSON(t, r, http.MethodPost, "/api/availability/today", bobToken, gin.H{"hours": []int{10, 11, 12}})

	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/availability/user/%d/today", bobID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(9), float64(10), float64(11)}, resp["myHours"])
	assert.Equal(t, []interface{}{float64(10), float64(11), float64(12)}, resp["hours"])
	assert.Equal(t, []interface{}{float64(10), float64(11)}, resp["overlap"])
	assert.Equal(t, float64(2), resp["overlapCount"])
	friend := resp["friend"].(map[string]interface{})
	assert.Equal(t, "bob", friend["username"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/availability/friends/today", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := resp["friends"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "bob", entry["username"])
	assert.Equal(t, float64(bobID), entry["friendId"])
	assert.Equal(t, float64(2), entry["overlapCount"])
}

func TestSearchEndpoint(t *testing.T) {
	r := setupRouter(t)
	aliceToken := registerUser(t, r, "alice")
	registerUser(t, r, "albert")
	registerUser(t, r, "balice")

	w, resp := doJSON(t, r, http.MethodGet, "/api/users/search?q=a&limit=10", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["users"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/users/search?q=al&limit=10", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := resp["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, "albert", users[0].(map[string]interface{})["username"])
}

func TestGroupsFlow(t *testing.T) {
	r := setupRouter(t)
	aliceToken := registerUser(t, r, "alice")
	bobToken := registerUser(t, r, "bob")

	w, resp := doJSON(t, r, http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "brunch crew"})
	require.Equal(t, http.StatusCreated, w.Code)
	groupID := int64(resp["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/api/groups", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := resp["groups"].([]interface{})
	require.Len(t, groups, 1)
	assert.Equal(t, float64(1), groups[0].(map[string]interface{})["membersCount"])

	// Non-member cannot see detail.
	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/groups/%d", groupID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/groups/%d/join", groupID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/groups/%d", groupID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["members"].([]interface{}), 2)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/groups/%d/leave", groupID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/groups/%d", groupID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/groups/9999", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPingAndHealth(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r, "alice")

	w, resp := doJSON(t, r, http.MethodGet, "/api/ping", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
	assert.NotEmpty(t, resp["time"])
	assert.NotZero(t, resp["user"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}
