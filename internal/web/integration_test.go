package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clandphoto/internal/db"
	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/imaging"
	"github.com/vbonduro/clandphoto/internal/logging"
	"github.com/vbonduro/clandphoto/internal/seed"
	"github.com/vbonduro/clandphoto/internal/service"
	"github.com/vbonduro/clandphoto/internal/store"
	"github.com/vbonduro/clandphoto/internal/vision"
	"github.com/vbonduro/clandphoto/internal/web"
	"github.com/vbonduro/clandphoto/internal/web/templates"
	"github.com/vbonduro/clandphoto/internal/workflow"
)

const (
	testPassword  = "open-sesame"
	testMaxUpload = 64 * 1024
)

// testPNG is a small real PNG so thumbnails can be rendered from it.
var testPNG = func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

// recordingVision captures the image bytes passed to it and returns a
// pre-configured result. It implements both Analyzer and Summarizer.
type recordingVision struct {
	mu        sync.Mutex
	calls     int
	lastBytes []byte
	result    *vision.AnalysisResult
	summary   string
}

func (r *recordingVision) Analyze(_ context.Context, rd io.Reader, _ string) (*vision.AnalysisResult, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("recordingVision: read image: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastBytes = data
	res := *r.result
	return &res, nil
}

func (r *recordingVision) Summarize(_ context.Context, _ string) (string, error) {
	return r.summary, nil
}

func (r *recordingVision) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *recordingVision) LastBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBytes
}

// fastScheduler runs the upload simulation on millisecond timers.
type fastScheduler struct{}

func (fastScheduler) After(_ time.Duration, fn func()) workflow.CancelFunc {
	return workflow.SystemScheduler{}.After(time.Millisecond, fn)
}

func (fastScheduler) Every(_ time.Duration, fn func()) workflow.CancelFunc {
	return workflow.SystemScheduler{}.Every(time.Millisecond, fn)
}

type testEnv struct {
	srv     *httptest.Server
	client  *http.Client
	vis     *recordingVision
	records *service.RecordService
}

// newTestServer sets up a real web.Server backed by in-memory SQLite seeded
// with the demo data and the given vision stub.
func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	logger := logging.Discard()
	records := service.NewRecordService(store.NewUserStore(database), store.NewPhotoStore(database), logger)
	fixtures, err := seed.Load("")
	require.NoError(t, err)
	require.NoError(t, records.Seed(context.Background(), fixtures))

	vis := &recordingVision{
		result: &vision.AnalysisResult{
			VehicleModel: "Fiat Uno",
			LicensePlate: "QRS-4321",
			Description:  "Small hatchback, dent on the rear door.",
			Tags:         []string{"hatchback", "dent"},
		},
		summary: "Fleet is in good shape overall.",
	}
	thumbs, err := imaging.NewThumbnailer(32, 16)
	require.NoError(t, err)

	server := web.NewServer(web.Deps{
		Records:        records,
		Reports:        service.NewReportService(records, vis, time.Second, logger),
		Admin:          service.NewAdminService(records, testPassword, logger),
		Analyzer:       vis,
		Thumbnails:     thumbs,
		Templates:      templates.FS,
		Logger:         logger,
		MaxUploadBytes: testMaxUpload,
		AnalyzeTimeout: time.Second,
		Scheduler:      fastScheduler{},
	})
	srv := httptest.NewServer(server)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Cleanup(func() {
		srv.Close()
		server.Close()
		_ = database.Close()
	})
	return &testEnv{srv: srv, client: client, vis: vis, records: records}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) postForm(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.srv.URL+path, values)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) delete(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, e.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

type workflowReply struct {
	Error    string            `json:"error"`
	Snapshot workflow.Snapshot `json:"snapshot"`
}

func decodeReply(t *testing.T, body string) workflowReply {
	t.Helper()
	var r workflowReply
	require.NoError(t, json.Unmarshal([]byte(body), &r), body)
	return r
}

// buildMultipartBody creates a multipart/form-data body with a "photo" field.
func buildMultipartBody(t *testing.T, filename string, data []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename string, data []byte) (*http.Response, workflowReply) {
	t.Helper()
	body, ct := buildMultipartBody(t, filename, data)
	resp, err := e.client.Post(e.srv.URL+"/collect/photo", ct, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, decodeReply(t, string(raw))
}

func (e *testEnv) state(t *testing.T) workflow.Snapshot {
	t.Helper()
	_, body := e.get(t, "/collect/state")
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap), body)
	return snap
}

// waitForState polls the session until it reaches want.
func (e *testEnv) waitForState(t *testing.T, want workflow.State) workflow.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := e.state(t)
		if snap.State == want {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("workflow never reached %s, last state %s", want, snap.State)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIntegration_Pages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	tests := []struct {
		path string
		want []string
	}{
		{"/dashboard", []string{"Total photos", "Carlos Lima", "Hello, Ana"}},
		{"/collect", []string{"New photo", `name="photo"`, "/collect/ws"}},
		{"/users", []string{"Beatriz Silva", "Pending", "Approve", `class="badge"`}},
		{"/reports", []string{"JEP-5544", "Jeep Compass", "Carlos Lima", "Generate AI summary"}},
		{"/admin", []string{"Master password", "/admin/unlock"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := env.get(t, tt.path)
			require.Equal(t, http.StatusOK, resp.StatusCode, body)
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
		})
	}
}

func TestIntegration_RootRedirectsToDashboard(t *testing.T) {
	env := newTestServer(t)

	resp, _ := env.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestIntegration_PageViewRecordsAccess(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	before, err := env.records.GetUser(ctx, "1")
	require.NoError(t, err)

	env.get(t, "/dashboard")
	env.get(t, "/reports")

	after, err := env.records.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, after.AccessLogs, len(before.AccessLogs)+2)
}

// TestIntegration_CollectFlow drives one photo from upload to committed
// record through the HTTP surface.
func TestIntegration_CollectFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp, reply := env.upload(t, "car.png", testPNG)
	require.Equal(t, http.StatusOK, resp.StatusCode, reply.Error)

	snap := env.waitForState(t, workflow.StateReviewing)
	assert.Equal(t, "QRS-4321", snap.Fields.LicensePlate)
	assert.Equal(t, "Fiat Uno", snap.Fields.VehicleModel)
	assert.Equal(t, []string{"hatchback", "dent"}, snap.Fields.Tags)
	assert.Equal(t, "success", snap.Outcome)
	assert.Empty(t, snap.Error)
	assert.True(t, snap.HasPreview)
	assert.Equal(t, testPNG, env.vis.LastBytes())

	resp, body := env.get(t, "/collect/preview")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(testPNG), body)

	resp, body = env.postForm(t, "/collect/fields", url.Values{
		"licensePlate": {"QRS-0001"},
		"tags":         {"hatchback, dent, rear"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	edited := decodeReply(t, body).Snapshot
	assert.Equal(t, "QRS-0001", edited.Fields.LicensePlate)
	assert.Equal(t, []string{"hatchback", "dent", "rear"}, edited.Fields.Tags)

	resp, body = env.postForm(t, "/collect/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	// The session resets to idle once the record has been handed off.
	env.waitForState(t, workflow.StateIdle)

	photos, err := env.records.ListPhotos(context.Background())
	require.NoError(t, err)
	require.Len(t, photos, 4)
	rec := photos[3]
	assert.Equal(t, "QRS-0001", rec.LicensePlate)
	assert.Equal(t, "Fiat Uno", rec.VehicleModel)
	assert.Equal(t, "1", rec.UserID)
	assert.True(t, strings.HasPrefix(rec.ImageURL, "data:image/png;base64,"))

	_, page := env.get(t, "/reports")
	assert.Contains(t, page, "QRS-0001")
}

// TestIntegration_RecordStampedWithUserAtSave checks that a record carries
// the user current when it is saved, not when the session was opened.
func TestIntegration_RecordStampedWithUserAtSave(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp, _ := env.get(t, "/collect")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.delete(t, "/users/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, reply := env.upload(t, "car.png", testPNG)
	require.Equal(t, http.StatusOK, resp.StatusCode, reply.Error)
	env.waitForState(t, workflow.StateReviewing)

	resp, body := env.postForm(t, "/collect/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	env.waitForState(t, workflow.StateIdle)

	photos, err := env.records.ListPhotos(context.Background())
	require.NoError(t, err)
	var saved *domain.PhotoEntry
	for _, p := range photos {
		if p.LicensePlate == "QRS-4321" {
			saved = p
		}
	}
	require.NotNil(t, saved)
	assert.Equal(t, "2", saved.UserID)
}

func TestIntegration_RejectsNonImage(t *testing.T) {
	env := newTestServer(t)

	resp, reply := env.upload(t, "notes.txt", []byte("just some text"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, workflow.ErrNotImage.Error(), reply.Error)
	assert.Equal(t, workflow.StateIdle, reply.Snapshot.State)
	assert.Equal(t, workflow.ErrNotImage.Error(), reply.Snapshot.Error)
	assert.Zero(t, env.vis.Calls())
}

func TestIntegration_RejectsOversizedImage(t *testing.T) {
	env := newTestServer(t)

	big := append(append([]byte{}, testPNG...), make([]byte, testMaxUpload)...)
	resp, reply := env.upload(t, "huge.png", big)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, reply.Error, "maximum size")
	assert.Equal(t, workflow.StateIdle, reply.Snapshot.State)
	assert.Zero(t, env.vis.Calls())

	resp, body := env.postForm(t, "/collect/dismiss", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeReply(t, body).Snapshot.Error)
}

func TestIntegration_EmptyPlateNeedsConfirmation(t *testing.T) {
	env := newTestServer(t)

	_, _ = env.upload(t, "car.png", testPNG)
	env.waitForState(t, workflow.StateReviewing)

	resp, body := env.postForm(t, "/collect/fields", url.Values{"field": {"licensePlate"}, "value": {""}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = env.postForm(t, "/collect/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	reply := decodeReply(t, body)
	assert.Equal(t, workflow.ErrPlateConfirmationRequired.Error(), reply.Error)
	assert.Equal(t, workflow.StateReviewing, reply.Snapshot.State)

	resp, body = env.postForm(t, "/collect/confirm", url.Values{"allowEmptyPlate": {"true"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	env.waitForState(t, workflow.StateIdle)

	photos, err := env.records.ListPhotos(context.Background())
	require.NoError(t, err)
	assert.Len(t, photos, 4)
}

func TestIntegration_InvalidOperations(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.postForm(t, "/collect/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, body)

	resp, body = env.postForm(t, "/collect/retake", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)

	_, _ = env.upload(t, "car.png", testPNG)
	env.waitForState(t, workflow.StateReviewing)

	resp, body = env.postForm(t, "/collect/fields", url.Values{"field": {"colour"}, "value": {"red"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, body = env.postForm(t, "/collect/retake", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	snap := decodeReply(t, body).Snapshot
	assert.Equal(t, workflow.StateIdle, snap.State)
	assert.False(t, snap.HasPreview)

	resp, _ = env.get(t, "/collect/preview")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_WebsocketStreamsSnapshots(t *testing.T) {
	env := newTestServer(t)

	// Establish the session cookie first so the socket and the upload share it.
	env.get(t, "/collect")
	u, err := url.Parse(env.srv.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, c := range env.client.Jar.Cookies(u) {
		header.Add("Cookie", c.String())
	}

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/collect/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	type message struct {
		Type     string            `json:"type"`
		Snapshot workflow.Snapshot `json:"snapshot"`
		RecordID string            `json:"recordId"`
		Redirect string            `json:"redirect"`
	}
	read := func() message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var m message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	first := read()
	assert.Equal(t, "snapshot", first.Type)
	assert.Equal(t, workflow.StateIdle, first.Snapshot.State)

	_, _ = env.upload(t, "car.png", testPNG)
	env.waitForState(t, workflow.StateReviewing)
	_, _ = env.postForm(t, "/collect/confirm", nil)

	var committed message
	for committed.Type != "committed" {
		committed = read()
	}
	assert.NotEmpty(t, committed.RecordID)
	assert.Equal(t, "/reports", committed.Redirect)
}

func TestIntegration_Users(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp, body := env.postForm(t, "/users", url.Values{"name": {"Diego Rocha"}, "email": {"diego@example.com"}, "role": {"collector"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Diego Rocha")
	assert.Contains(t, body, "Pending")

	resp, body = env.postForm(t, "/users", url.Values{"name": {""}, "email": {"x@example.com"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, body = env.postForm(t, "/users/3/status", url.Values{"status": {"active"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Active")
	assert.Contains(t, body, "Block")

	resp, body = env.postForm(t, "/users/3/status", url.Values{"status": {"banished"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, _ = env.postForm(t, "/users/nope/status", url.Values{"status": {"active"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.delete(t, "/users/2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/users", resp.Header.Get("HX-Redirect"))

	resp = env.delete(t, "/users/2")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, page := env.get(t, "/users")
	assert.NotContains(t, page, "Carlos Lima")
}

func TestIntegration_ReportsAndPhotos(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.postForm(t, "/reports/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Fleet is in good shape overall.")

	resp, _ = env.get(t, "/photos/101/image")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "images.unsplash.com")

	_, _ = env.upload(t, "car.png", testPNG)
	env.waitForState(t, workflow.StateReviewing)
	_, _ = env.postForm(t, "/collect/confirm", nil)
	env.waitForState(t, workflow.StateIdle)

	photos, err := env.records.ListPhotos(context.Background())
	require.NoError(t, err)
	require.Len(t, photos, 4)
	id := photos[3].ID

	resp, body = env.get(t, "/photos/"+id+"/image")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(testPNG), body)

	resp, body = env.get(t, "/photos/"+id+"/thumbnail")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	thumb, _, err := image.Decode(strings.NewReader(body))
	require.NoError(t, err)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 32)

	resp = env.delete(t, "/photos/"+id)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/reports", resp.Header.Get("HX-Redirect"))

	resp, _ = env.get(t, "/photos/"+id+"/image")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.delete(t, "/photos/"+id)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_Admin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)
	ctx := context.Background()

	resp, body := env.postForm(t, "/admin/admins", url.Values{"name": {"Eva"}, "email": {"eva@example.com"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, body)

	resp, body = env.postForm(t, "/admin/unlock", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, service.ErrWrongPassword.Error())

	resp, _ = env.postForm(t, "/admin/unlock", url.Values{"password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = env.get(t, "/admin")
	assert.Contains(t, body, "New administrator")

	resp, body = env.postForm(t, "/admin/admins", url.Values{"name": {"Eva Prado"}, "email": {"eva@example.com"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Administrator Eva Prado created.")

	resp, _ = env.postForm(t, "/admin/clear", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.postForm(t, "/admin/clear", url.Values{"password": {testPassword}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "All data cleared.")

	photos, err := env.records.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Empty(t, photos)
	users, err := env.records.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "1", users[0].ID)

	resp, _ = env.postForm(t, "/admin/lock", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = env.get(t, "/admin")
	assert.NotContains(t, body, "New administrator")
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	env := newTestServer(t)

	resp, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	env.get(t, "/dashboard")
	resp, body = env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "clandphoto_http_requests_total")
	assert.Contains(t, body, `route="/dashboard"`)
}
