package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"EchoLegacy/internal/models"
	"EchoLegacy/internal/voice"
	"EchoLegacy/pkg/cache"
	"EchoLegacy/pkg/config"
	stores "EchoLegacy/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	store, err := stores.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	gw := voice.NewStubGateway(nil)
	lifecycle := voice.NewController(db, gw, store, nil)
	synth := voice.NewSynthesizer(gw, nil)
	appCache := cache.NewLocalCache(cache.LocalConfig{})

	cfg := &config.Config{
		APIPrefix:     "/api",
		AuthPrefix:    "/api/auth",
		SessionSecret: "test-secret",
		RateLimit:     "10000-S",
	}

	r := gin.New()
	h := New(db, store, lifecycle, synth, appCache, nil)
	h.RegisterRoutes(r, cfg)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, db: db}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := e.client.Post(e.srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

func (e *testEnv) register(t *testing.T) {
	t.Helper()
	resp, _ := e.postJSON(t, "/api/auth/register", gin.H{
		"username": "tester",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) createProfile(t *testing.T, name string) string {
	t.Helper()
	resp, body := e.postJSON(t, "/api/profiles", gin.H{"name": name, "relation": "grandmother"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	return data["id"].(string)
}

func (e *testEnv) uploadSlot(t *testing.T, profileID string, slot int, audio []byte) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", fmt.Sprintf("sample%d.wav", slot))
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("quality", "good"))
	require.NoError(t, w.Close())

	path := fmt.Sprintf("/api/profiles/%s/recordings/%d", profileID, slot)
	resp, body := e.do(t, http.MethodPut, path, &buf, w.FormDataContentType())
	return resp.StatusCode, body
}

func voiceStatus(body map[string]interface{}) string {
	data, _ := body["data"].(map[string]interface{})
	s, _ := data["voiceStatus"].(string)
	return s
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.client.Get(e.srv.URL + "/api/profiles")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecordingFlowTrainsVoice(t *testing.T) {
	e := newTestEnv(t)
	e.register(t)
	profileID := e.createProfile(t, "Grandma June")

	// First two uploads leave the model training.
	for slot := 0; slot < 2; slot++ {
		status, body := e.uploadSlot(t, profileID, slot, []byte(fmt.Sprintf("pcm-%d", slot)))
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, models.VoiceStatusTraining, voiceStatus(body))
	}

	// The third completes the set and trains the voice.
	status, body := e.uploadSlot(t, profileID, 2, []byte("pcm-2"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.VoiceStatusReady, voiceStatus(body))

	// Bad slot index is rejected before any state change.
	status, _ = e.uploadSlot(t, profileID, models.SlotCount, []byte("pcm-x"))
	assert.Equal(t, http.StatusBadRequest, status)

	// Deleting a slot demotes back to training.
	resp, body := e.do(t, http.MethodDelete, fmt.Sprintf("/api/profiles/%s/recordings/1", profileID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.VoiceStatusTraining, voiceStatus(body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["removed"])
}

func TestMessageCreation(t *testing.T) {
	e := newTestEnv(t)
	e.register(t)
	profileID := e.createProfile(t, "Grandma June")

	// Not ready yet: message creation must fail without touching the provider.
	resp, _ := e.postJSON(t, "/api/messages", gin.H{
		"profileId": profileID, "title": "too early", "text": "hello",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for slot := 0; slot < models.SlotCount; slot++ {
		status, _ := e.uploadSlot(t, profileID, slot, []byte(fmt.Sprintf("pcm-%d", slot)))
		require.Equal(t, http.StatusOK, status)
	}

	// 750 characters → exactly one minute by the duration heuristic.
	text := strings.Repeat("a", 750)
	resp, body := e.postJSON(t, "/api/messages", gin.H{
		"profileId": profileID, "title": "for later", "category": "birthday", "text": text,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(60), data["durationSeconds"])
	msgID := data["id"].(string)

	// Over-length text is rejected up front.
	resp, _ = e.postJSON(t, "/api/messages", gin.H{
		"profileId": profileID, "text": strings.Repeat("b", voice.MaxMessageLength+1),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The stored audio streams back.
	audioResp, err := e.client.Get(e.srv.URL + "/api/messages/" + msgID + "/audio")
	require.NoError(t, err)
	raw, err := io.ReadAll(audioResp.Body)
	audioResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, audioResp.StatusCode)
	assert.Equal(t, len(text)*320, len(raw), "stub emits 320 bytes per character")
}

func TestProfileDeletionCleansUp(t *testing.T) {
	e := newTestEnv(t)
	e.register(t)
	profileID := e.createProfile(t, "Grandma June")

	for slot := 0; slot < models.SlotCount; slot++ {
		status, _ := e.uploadSlot(t, profileID, slot, []byte(fmt.Sprintf("pcm-%d", slot)))
		require.Equal(t, http.StatusOK, status)
	}

	resp, _ := e.do(t, http.MethodDelete, "/api/profiles/"+profileID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := e.client.Get(e.srv.URL + "/api/profiles/" + profileID)
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

	n, err := models.CountRecordingSlots(e.db, profileID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPromptsSeeded(t *testing.T) {
	e := newTestEnv(t)
	e.register(t)

	resp, err := e.client.Get(e.srv.URL + "/api/prompts")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prompts := body["data"].([]interface{})
	assert.Len(t, prompts, models.SlotCount)
}
