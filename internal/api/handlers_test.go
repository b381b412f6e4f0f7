package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"meetscribe/internal/config"
	"meetscribe/internal/generate"
	"meetscribe/internal/history"
	"meetscribe/internal/models"
	"meetscribe/internal/storage"
)

type fakeChatModel struct {
	reply string
	err   error
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func newTestServer(t *testing.T, generator *generate.Client) (*gin.Engine, *sql.DB, *history.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := history.NewStore(db, logger)
	handler := NewHandler(store, generator, logger)

	router := gin.New()
	handler.RegisterRoutes(router, []string{"http://localhost:3000"})
	return router, db, store
}

func testGenerator(t *testing.T, fake *fakeChatModel) *generate.Client {
	t.Helper()
	return generate.NewClientWithModel(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, router *gin.Engine, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, db, _ := newTestServer(t, nil)
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodGet, "/", nil)
	assertStatus(t, rec, http.StatusOK)
	var body struct {
		Status string `json:"status"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
}

func TestUploadExtractsPlainText(t *testing.T) {
	router, db, _ := newTestServer(t, nil)
	defer db.Close()

	content := "Discuss Q1 budget.\nAssign action items."
	rec := doUpload(t, router, "meeting.txt", []byte(content))
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Transcript string `json:"transcript"`
		Filename   string `json:"filename"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Transcript != content {
		t.Fatalf("transcript mismatch: %q", body.Transcript)
	}
	if body.Filename != "meeting.txt" {
		t.Fatalf("filename mismatch: %q", body.Filename)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	router, db, store := newTestServer(t, nil)
	defer db.Close()

	rec := doUpload(t, router, "notes.pdf", []byte("%PDF-1.4"))
	assertStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(rec.Body.String(), "unsupported file format") {
		t.Fatalf("expected format error, got %s", rec.Body.String())
	}

	// A rejected upload must not leave a history record behind.
	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records after rejected upload, got %d", len(records))
	}
}

func TestUploadRequiresFile(t *testing.T) {
	router, db, _ := newTestServer(t, nil)
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/upload", nil)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestGenerateReturnsModelResult(t *testing.T) {
	fake := &fakeChatModel{reply: "```json\n{\"summary\": \"Budget approved.\", \"emails\": [\"e1\", \"e2\", \"e3\"]}\n```"}
	router, db, store := newTestServer(t, testGenerator(t, fake))
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/generate", map[string]string{
		"transcript": "We approved the budget.",
		"filename":   "budget.txt",
	})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Summary string   `json:"summary"`
		Emails  []string `json:"emails"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Summary != "Budget approved." {
		t.Fatalf("unexpected summary %q", body.Summary)
	}
	if len(body.Emails) != 3 || body.Emails[0] != "e1" {
		t.Fatalf("unexpected emails %#v", body.Emails)
	}

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(records))
	}
	if records[0].Filename != "budget.txt" || records[0].Transcript != "We approved the budget." {
		t.Fatalf("persisted record mismatch: %#v", records[0])
	}
}

func TestGenerateFallsBackOnModelFailure(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("upstream unavailable")}
	router, db, store := newTestServer(t, testGenerator(t, fake))
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/generate", map[string]string{
		"transcript": "transcript text",
		"filename":   "call.txt",
	})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Summary string   `json:"summary"`
		Emails  []string `json:"emails"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if !strings.HasPrefix(body.Summary, generate.FallbackMarker) {
		t.Fatalf("expected fallback summary, got %q", body.Summary)
	}
	if len(body.Emails) != 3 {
		t.Fatalf("expected 3 fallback emails, got %d", len(body.Emails))
	}

	// The fallback result is persisted like any other.
	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || !strings.HasPrefix(records[0].Summary, generate.FallbackMarker) {
		t.Fatalf("expected persisted fallback record, got %#v", records)
	}
}

func TestGenerateDefaultsFilename(t *testing.T) {
	fake := &fakeChatModel{reply: "{\"summary\": \"s\", \"emails\": []}"}
	router, db, store := newTestServer(t, testGenerator(t, fake))
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/generate", map[string]string{
		"transcript": "t",
	})
	assertStatus(t, rec, http.StatusOK)

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "Unknown File" {
		t.Fatalf("expected Unknown File record, got %#v", records)
	}
}

func TestGenerateWithoutCredential(t *testing.T) {
	router, db, store := newTestServer(t, nil)
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/generate", map[string]string{
		"transcript": "t",
		"filename":   "f.txt",
	})
	assertStatus(t, rec, http.StatusInternalServerError)
	if !strings.Contains(rec.Body.String(), "API key not found") {
		t.Fatalf("expected configuration error, got %s", rec.Body.String())
	}

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestGenerateRejectsInvalidBody(t *testing.T) {
	router, db, _ := newTestServer(t, nil)
	defer db.Close()

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestHistoryEndpointNewestFirst(t *testing.T) {
	router, db, store := newTestServer(t, nil)
	defer db.Close()
	ctx := context.Background()

	for _, name := range []string{"old.txt", "new.txt"} {
		if _, err := store.Append(ctx, name, "t", "s", []string{"e"}); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}

	rec := doJSONRequest(t, router, http.MethodGet, "/history", nil)
	assertStatus(t, rec, http.StatusOK)

	var records []models.MeetingRecord
	decodeJSON(t, rec.Body.Bytes(), &records)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Filename != "new.txt" {
		t.Fatalf("expected newest first, got %s", records[0].Filename)
	}
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	router, db, _ := newTestServer(t, nil)
	defer db.Close()

	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assertStatus(t, rec, http.StatusNoContent)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}

func TestCORSUnknownOriginGetsNoHeader(t *testing.T) {
	router, db, _ := newTestServer(t, nil)
	defer db.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for unknown origin, got %q", got)
	}
}
