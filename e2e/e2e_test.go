//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"care-companion-go/internal/cache"
	"care-companion-go/internal/config"
	"care-companion-go/internal/db"
	recordsdomain "care-companion-go/internal/domain/records"
	scheduledomain "care-companion-go/internal/domain/schedule"
	recordsrepo "care-companion-go/internal/repository/postgres/records"
	"care-companion-go/internal/repository/schedulefile"
	"care-companion-go/internal/transport/httpserver"
	"care-companion-go/internal/transport/httpserver/handler"
	"care-companion-go/pkg/logger"
	"gorm.io/gorm"
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.Noop()

	dbConn, err := db.NewPostgres(config.DBConfig{DSN: dsn}, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	dir := t.TempDir()

	store, err := cache.NewFileStore(filepath.Join(dir, "cache.json"))
	if err != nil {
		t.Fatalf("cache store: %v", err)
	}
	cacheManager := cache.New(store, cache.Options{}, log)

	records := recordsdomain.NewService(recordsrepo.NewPostgres(dbConn), cacheManager, log)

	scheduleRepo := schedulefile.New(
		filepath.Join(dir, "schedules.json"),
		filepath.Join(dir, "elderly_schedules.json"),
		log,
	)
	schedules := scheduledomain.NewService(scheduleRepo)

	handlers := handler.New(records, schedules, cacheManager, log)
	server := httptest.NewServer(httpserver.NewRouter(handlers))

	return &testEnv{server: server, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE conversation_messages, life_memoirs, conversations RESTART IDENTITY CASCADE",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type conversationResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Title         string `json:"title"`
	IsActive      bool   `json:"is_active"`
	TotalMessages int    `json:"total_messages"`
}

type conversationListResponse struct {
	Items []conversationResponse `json:"items"`
	Total int                    `json:"total"`
}

type messageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	MessageOrder   int    `json:"message_order"`
}

type messageListResponse struct {
	Items []messageResponse `json:"items"`
	Total int               `json:"total"`
}

type memoirResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type memoirListResponse struct {
	Items []memoirResponse `json:"items"`
	Total int              `json:"total"`
}

type scheduleResponse struct {
	ID          string `json:"id"`
	ElderlyID   string `json:"elderly_id"`
	CreatedBy   string `json:"created_by"`
	Title       string `json:"title"`
	ScheduledAt int64  `json:"scheduled_at"`
	Category    string `json:"category"`
	IsCompleted bool   `json:"is_completed"`
}

type scheduleListResponse struct {
	Items []scheduleResponse `json:"items"`
	Total int                `json:"total"`
}

type cacheStatusResponse struct {
	Entries  int      `json:"entries"`
	Capacity int      `json:"capacity"`
	TTL      string   `json:"ttl"`
	Keys     []string `json:"keys"`
}

func TestHealth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	resp, body := requestJSON(t, env.server.Client(), http.MethodGet, env.server.URL+"/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", resp.StatusCode, body)
	}
}

func TestConversationLifecycle(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()
	client := env.server.Client()

	resp, body := requestJSON(t, client, http.MethodPost,
		env.server.URL+"/api/users/elderly-1/conversations",
		map[string]interface{}{"title": "Trò chuyện buổi sáng"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create conversation status %d: %s", resp.StatusCode, body)
	}
	var conversation conversationResponse
	if err := json.Unmarshal(body, &conversation); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if conversation.ID == "" || !conversation.IsActive {
		t.Fatalf("unexpected conversation: %+v", conversation)
	}

	for i, content := range []string{"Chào cháu", "Chào bà, bà ngủ ngon không?"} {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		resp, body = requestJSON(t, client, http.MethodPost,
			env.server.URL+"/api/conversations/"+conversation.ID+"/messages",
			map[string]interface{}{"role": role, "content": content})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("append message status %d: %s", resp.StatusCode, body)
		}
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/conversations/"+conversation.ID+"/messages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages status %d: %s", resp.StatusCode, body)
	}
	var messages messageListResponse
	if err := json.Unmarshal(body, &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if messages.Total != 2 {
		t.Fatalf("expected 2 messages, got %d", messages.Total)
	}
	if messages.Items[0].MessageOrder != 1 || messages.Items[1].MessageOrder != 2 {
		t.Fatalf("messages out of order: %+v", messages.Items)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/users/elderly-1/conversations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list conversations status %d: %s", resp.StatusCode, body)
	}
	var conversations conversationListResponse
	if err := json.Unmarshal(body, &conversations); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if conversations.Total != 1 || conversations.Items[0].TotalMessages != 2 {
		t.Fatalf("unexpected conversations: %+v", conversations)
	}
}

func TestAppendMessageToUnknownConversation(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	resp, body := requestJSON(t, env.server.Client(), http.MethodPost,
		env.server.URL+"/api/conversations/00000000-0000-0000-0000-000000000000/messages",
		map[string]interface{}{"role": "user", "content": "hello"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, body)
	}
}

func TestMemoirLifecycle(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()
	client := env.server.Client()

	resp, body := requestJSON(t, client, http.MethodPost,
		env.server.URL+"/api/users/elderly-1/memoirs",
		map[string]interface{}{
			"title":          "Ngày cưới",
			"content":        "Chúng tôi cưới nhau năm 1975 ở Hải Phòng.",
			"time_period":    "1970s",
			"emotional_tone": "joyful",
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create memoir status %d: %s", resp.StatusCode, body)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/users/elderly-1/memoirs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list memoirs status %d: %s", resp.StatusCode, body)
	}
	var memoirs memoirListResponse
	if err := json.Unmarshal(body, &memoirs); err != nil {
		t.Fatalf("decode memoirs: %v", err)
	}
	if memoirs.Total != 1 || memoirs.Items[0].Title != "Ngày cưới" {
		t.Fatalf("unexpected memoirs: %+v", memoirs)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()
	client := env.server.Client()

	future := time.Now().Add(2 * time.Hour).Unix()

	resp, body := requestJSON(t, client, http.MethodPost,
		env.server.URL+"/api/schedules",
		map[string]interface{}{
			"elderly_id":     "elderly-1",
			"family_user_id": "family-1",
			"title":          "Uống thuốc",
			"message":        "Thuốc huyết áp sau bữa sáng",
			"scheduled_at":   future,
			"category":       "medicine",
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create schedule status %d: %s", resp.StatusCode, body)
	}
	var created scheduleResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	if created.ID == "" || created.CreatedBy != "family-1" {
		t.Fatalf("unexpected schedule: %+v", created)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/elderly/elderly-1/schedules", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list elderly schedules status %d: %s", resp.StatusCode, body)
	}
	var forElderly scheduleListResponse
	if err := json.Unmarshal(body, &forElderly); err != nil {
		t.Fatalf("decode schedules: %v", err)
	}
	if forElderly.Total != 1 {
		t.Fatalf("expected 1 schedule, got %d", forElderly.Total)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/elderly/elderly-1/schedules/upcoming?limit=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list upcoming status %d: %s", resp.StatusCode, body)
	}
	var upcoming scheduleListResponse
	if err := json.Unmarshal(body, &upcoming); err != nil {
		t.Fatalf("decode upcoming: %v", err)
	}
	if upcoming.Total != 1 {
		t.Fatalf("expected 1 upcoming schedule, got %d", upcoming.Total)
	}

	resp, body = requestJSON(t, client, http.MethodPost,
		env.server.URL+"/api/schedules/"+created.ID+"/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", resp.StatusCode, body)
	}
	var completed scheduleResponse
	if err := json.Unmarshal(body, &completed); err != nil {
		t.Fatalf("decode completed: %v", err)
	}
	if !completed.IsCompleted {
		t.Fatalf("schedule not completed: %+v", completed)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/elderly/elderly-1/schedules/upcoming", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list upcoming status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &upcoming); err != nil {
		t.Fatalf("decode upcoming: %v", err)
	}
	if upcoming.Total != 0 {
		t.Fatalf("completed schedule still upcoming: %+v", upcoming)
	}

	resp, body = requestJSON(t, client, http.MethodDelete,
		env.server.URL+"/api/schedules/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d: %s", resp.StatusCode, body)
	}

	resp, body = requestJSON(t, client, http.MethodDelete,
		env.server.URL+"/api/schedules/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d: %s", resp.StatusCode, body)
	}
}

func TestCacheStatusAndClear(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()
	client := env.server.Client()

	resp, body := requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/users/elderly-1/conversations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list conversations status %d: %s", resp.StatusCode, body)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/cache/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cache status %d: %s", resp.StatusCode, body)
	}
	var status cacheStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decode cache status: %v", err)
	}
	if status.Entries != 1 || status.Capacity != cache.DefaultCapacity {
		t.Fatalf("unexpected cache status: %+v", status)
	}

	resp, body = requestJSON(t, client, http.MethodDelete, env.server.URL+"/api/cache", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("cache clear status %d: %s", resp.StatusCode, body)
	}

	resp, body = requestJSON(t, client, http.MethodGet,
		env.server.URL+"/api/cache/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cache status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decode cache status: %v", err)
	}
	if status.Entries != 0 {
		t.Fatalf("cache not cleared: %+v", status)
	}
}
