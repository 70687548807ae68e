package routes

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/round-submissions/db/dbtest"
	"github.com/Dosada05/round-submissions/handlers"
	"github.com/Dosada05/round-submissions/models"
	"github.com/Dosada05/round-submissions/notifications"
	"github.com/Dosada05/round-submissions/repositories"
	"github.com/Dosada05/round-submissions/services"
	"github.com/Dosada05/round-submissions/storage"
	"github.com/Dosada05/round-submissions/utils"
)

const testSecret = "route-secret"

type recordingNotifier struct {
	mu       sync.Mutex
	channels []string
}

func (n *recordingNotifier) Publish(_ context.Context, channel string, _ any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, channel)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.channels...)
}

// app is the whole HTTP surface on SQLite and a temp blob directory, with one
// event that has a past round (index 0) and a current round (index 1).
type app struct {
	srv      *httptest.Server
	hub      *notifications.Hub
	db       *sql.DB
	blobs    storage.BlobStore
	notifier *recordingNotifier

	host, participant, stranger      int
	eventID, currentRound, pastRound int
}

func newApp(t *testing.T, ev models.Event) *app {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sqlDB := dbtest.Open(t)
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}

	d := repositories.SQLiteDialect
	fileRepo := repositories.NewFileRepository(sqlDB, d)
	eventRepo := repositories.NewEventRepository(sqlDB, d)
	roundRepo := repositories.NewRoundRepository(sqlDB, d)
	submissionRepo := repositories.NewRoundSubmissionRepository(sqlDB, d)
	userRepo := repositories.NewUserRepository(sqlDB, d)

	hub := notifications.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	notifier := &recordingNotifier{}
	fanout := notifications.Fanout{notifier, services.PublicEventsOnly(hub)}
	authService := services.NewAuthService(userRepo, testSecret, time.Hour)
	fileService := services.NewFileService(fileRepo, blobs, logger)
	ingestion := services.NewIngestionService(sqlDB, fileRepo, eventRepo, roundRepo, submissionRepo, userRepo, blobs, fanout, logger)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:       handlers.NewAuthHandler(authService, logger),
		Files:      handlers.NewFileHandler(fileService, ingestion, 1<<20, logger),
		Submission: handlers.NewSubmissionHandler(services.NewSubmissionViewService(submissionRepo), logger),
		WebSocket:  handlers.NewWebSocketHandler(hub, services.NewSubscriptionService(eventRepo), nil, logger),
	}, authService, []string{"*"}, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	hash, err := utils.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	a := &app{srv: srv, hub: hub, db: sqlDB, blobs: blobs, notifier: notifier}
	a.host = dbtest.InsertUserWithPassword(t, sqlDB, "host", hash)
	a.participant = dbtest.InsertUser(t, sqlDB, "participant")
	a.stranger = dbtest.InsertUser(t, sqlDB, "stranger")

	ev.HostUserID = a.host
	ev.Name = "Song Swap"
	a.eventID = dbtest.InsertEvent(t, sqlDB, ev)
	a.pastRound = dbtest.InsertRound(t, sqlDB, a.eventID, 0)
	a.currentRound = dbtest.InsertRound(t, sqlDB, a.eventID, 1)
	dbtest.SetCurrentRound(t, sqlDB, a.eventID, a.currentRound)
	return a
}

func (a *app) token(t *testing.T, userID int) string {
	t.Helper()
	tok, err := utils.GenerateJWT(userID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

// storeFile puts a blob and its metadata row in place and returns the file id.
func (a *app) storeFile(t *testing.T, name, content string) int {
	t.Helper()
	if _, err := a.blobs.Write(context.Background(), name, "", strings.NewReader(content)); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	return dbtest.InsertFile(t, a.db, name, int64(len(content)))
}

func (a *app) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	res, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, body
}

func (a *app) get(t *testing.T, path, token string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

type part struct {
	field, filename, content string
}

func (a *app) upload(t *testing.T, path, token string, parts ...part) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, p.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.WriteField("note", "hello"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(t, req)
}

type result struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	FileID  int    `json:"file_id"`
}

func decodeResult(t *testing.T, body []byte) result {
	t.Helper()
	var r result
	if err := json.Unmarshal(body, &r); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return r
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{})

	res, body := a.get(t, "/healthz", "")
	if res.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q, want 200 \"ok\"", res.StatusCode, body)
	}
}

func TestDownloadPublicFileAnonymously(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusPublished, IsPublic: true})
	fileID := a.storeFile(t, "stored.mid", "MThd")
	dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.pastRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusCompleted, SubmittedFileID: &fileID,
	})

	res, body := a.get(t, fmt.Sprintf("/files/%d", fileID), "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", res.StatusCode, body)
	}
	if string(body) != "MThd" {
		t.Errorf("body = %q, want %q", body, "MThd")
	}
	wantDisposition := fmt.Sprintf("attachment; filename=%d.mid", fileID)
	if got := res.Header.Get("Content-Disposition"); got != wantDisposition {
		t.Errorf("Content-Disposition = %q, want %q", got, wantDisposition)
	}
	if got := res.Header.Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q, want %q", got, "4")
	}
}

func TestDownloadPrivateFile(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusStarted})
	fileID := a.storeFile(t, "seed.wav", "RIFF")
	dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.currentRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted, SeededFileID: &fileID,
	})

	path := fmt.Sprintf("/files/%d", fileID)
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "stranger", token: a.token(t, a.stranger), want: http.StatusForbidden},
		{name: "anonymous", token: "", want: http.StatusForbidden},
		{name: "seeded participant", token: a.token(t, a.participant), want: http.StatusOK},
		{name: "host", token: a.token(t, a.host), want: http.StatusOK},
	}
	for _, tt := range tests {
		res, body := a.get(t, path, tt.token)
		if res.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d (body %q)", tt.name, res.StatusCode, tt.want, body)
		}
		if tt.want == http.StatusForbidden {
			if r := decodeResult(t, body); r.Code != http.StatusForbidden {
				t.Errorf("%s: code = %d, want %d", tt.name, r.Code, http.StatusForbidden)
			}
		}
	}
}

func TestDownloadRejectsBadIdentifiers(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{})

	for _, id := range []string{"abc", "0", "-4", "+3", "007"} {
		res, body := a.get(t, "/files/"+id, "")
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("GET /files/%s status = %d, want 400 (body %q)", id, res.StatusCode, body)
		}
	}

	res, _ := a.get(t, "/files/999", "")
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", res.StatusCode)
	}
}

func TestUploadSubmissionFile(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusStarted})
	sub := dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.currentRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted,
	})

	res, body := a.upload(t, fmt.Sprintf("/roundsubmissions/%d/file", sub), a.token(t, a.participant),
		part{field: "file", filename: "take1.mp3", content: "ID3"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", res.StatusCode, body)
	}
	r := decodeResult(t, body)
	if r.Message != "File uploaded!" || r.FileID <= 0 {
		t.Errorf("result = %+v, want File uploaded! with a file id", r)
	}

	if got := dbtest.CountRows(t, a.db, "files"); got != 1 {
		t.Errorf("files rows = %d, want 1", got)
	}
	wantChannels := []string{services.GlobalEventsChannel, services.EventChannel(a.eventID)}
	if got := a.notifier.sent(); fmt.Sprint(got) != fmt.Sprint(wantChannels) {
		t.Errorf("published channels = %v, want %v", got, wantChannels)
	}

	// The new file is reachable by its uploader.
	res, body = a.get(t, fmt.Sprintf("/files/%d", r.FileID), a.token(t, a.participant))
	if res.StatusCode != http.StatusOK || string(body) != "ID3" {
		t.Errorf("download = %d %q, want 200 \"ID3\"", res.StatusCode, body)
	}
}

func TestUploadSubmissionFileRejected(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusStarted})
	current := dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.currentRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted,
	})
	past := dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.pastRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted,
	})

	one := part{field: "file", filename: "a.mp3", content: "ID3"}
	currentPath := fmt.Sprintf("/roundsubmissions/%d/file", current)
	tests := []struct {
		name  string
		path  string
		token string
		parts []part
		want  int
	}{
		{name: "bad id", path: "/roundsubmissions/abc/file", token: a.token(t, a.participant), parts: []part{one}, want: http.StatusBadRequest},
		{name: "bad id without credential", path: "/roundsubmissions/0/file", parts: []part{one}, want: http.StatusBadRequest},
		{name: "anonymous", path: currentPath, parts: []part{one}, want: http.StatusUnauthorized},
		{name: "garbage token", path: currentPath, token: "not-a-jwt", parts: []part{one}, want: http.StatusUnauthorized},
		{name: "no file", path: currentPath, token: a.token(t, a.participant), want: http.StatusBadRequest},
		{name: "two files", path: currentPath, token: a.token(t, a.participant), parts: []part{one, {field: "other", filename: "b.mp3", content: "ID3"}}, want: http.StatusBadRequest},
		{name: "stranger", path: currentPath, token: a.token(t, a.stranger), parts: []part{one}, want: http.StatusForbidden},
		{name: "past round", path: fmt.Sprintf("/roundsubmissions/%d/file", past), token: a.token(t, a.participant), parts: []part{one}, want: http.StatusForbidden},
		{name: "missing submission", path: "/roundsubmissions/999/file", token: a.token(t, a.participant), parts: []part{one}, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		res, body := a.upload(t, tt.path, tt.token, tt.parts...)
		if res.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d (body %q)", tt.name, res.StatusCode, tt.want, body)
			continue
		}
		if r := decodeResult(t, body); r.Code != tt.want {
			t.Errorf("%s: code = %d, want %d", tt.name, r.Code, tt.want)
		}
	}

	if got := dbtest.CountRows(t, a.db, "files"); got != 0 {
		t.Errorf("files rows = %d, want 0", got)
	}
	if got := a.notifier.sent(); len(got) != 0 {
		t.Errorf("published channels = %v, want none", got)
	}
}

func TestUploadEventInitialFile(t *testing.T) {
	t.Parallel()
	planned := newApp(t, models.Event{})

	path := fmt.Sprintf("/events/%d/initial-file", planned.eventID)
	res, body := planned.upload(t, path, planned.token(t, planned.stranger), part{field: "file", filename: "seed.wav", content: "RIFF"})
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("stranger status = %d, want 403 (body %q)", res.StatusCode, body)
	}

	res, body = planned.upload(t, path, planned.token(t, planned.host), part{field: "file", filename: "seed.wav", content: "RIFF"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("host status = %d, want 200 (body %q)", res.StatusCode, body)
	}
	if got := len(planned.notifier.sent()); got != 2 {
		t.Errorf("published %d messages, want 2", got)
	}

	started := newApp(t, models.Event{Status: models.EventStatusStarted})
	path = fmt.Sprintf("/events/%d/initial-file", started.eventID)
	res, body = started.upload(t, path, started.token(t, started.host), part{field: "file", filename: "seed.wav", content: "RIFF"})
	if res.StatusCode != http.StatusConflict {
		t.Errorf("started event status = %d, want 409 (body %q)", res.StatusCode, body)
	}
}

func TestSignIn(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{})

	post := func(payload string) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/users/signin", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return a.do(t, req)
	}

	res, body := post(`{"username":"host","password":"hunter22"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", res.StatusCode, body)
	}
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.User.ID != a.host {
		t.Errorf("user id = %d, want %d", out.User.ID, a.host)
	}
	uid, err := utils.ParseJWT(out.Token, []byte(testSecret))
	if err != nil || uid != a.host {
		t.Errorf("token resolves to %d, %v; want %d", uid, err, a.host)
	}

	res, _ = post(`{"username":"host","password":"wrong"}`)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", res.StatusCode)
	}
	res, _ = post(`{"username":`)
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", res.StatusCode)
	}
}

func TestGetRoundSubmission(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusStarted})
	sub := dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.currentRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted,
	})

	res, body := a.get(t, fmt.Sprintf("/roundsubmissions/%d", sub), a.token(t, a.participant))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", res.StatusCode, body)
	}
	var out struct {
		RoundSubmission services.SubmissionView `json:"roundsubmission"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.RoundSubmission.Kind != services.ViewParticipated {
		t.Errorf("kind = %q, want %q", out.RoundSubmission.Kind, services.ViewParticipated)
	}
	wantURL := fmt.Sprintf("/roundsubmissions/%d/file", sub)
	if out.RoundSubmission.UploadURL != wantURL {
		t.Errorf("upload url = %q, want %q", out.RoundSubmission.UploadURL, wantURL)
	}

	res, _ = a.get(t, fmt.Sprintf("/roundsubmissions/%d", sub), "")
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("anonymous on private event status = %d, want 404", res.StatusCode)
	}
}

func TestWebSocketRejectsUnknownChannel(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{})

	for _, ch := range []string{"somethingElse", "event0Changed", "eventxChanged"} {
		res, _ := a.get(t, "/ws/"+ch, "")
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("GET /ws/%s status = %d, want 400", ch, res.StatusCode)
		}
	}
}

// subscribe opens /ws/{channel} and waits until the hub counts want subscribers.
func (a *app) subscribe(t *testing.T, channel, token string, want int) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws/" + channel
	conn, res, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if res != nil {
			status = res.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", channel, err, status)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(5 * time.Second)
	for a.hub.Subscribers(channel) < want {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber on %s never registered", channel)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return conn
}

func (a *app) dialStatus(t *testing.T, channel, token string) int {
	t.Helper()

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws/" + channel
	conn, res, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		return http.StatusSwitchingProtocols
	}
	if res == nil {
		t.Fatalf("dial %s: %v", channel, err)
	}
	return res.StatusCode
}

func TestWebSocketPrivateEventChannel(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusStarted})
	sub := dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.currentRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted,
	})
	channel := services.EventChannel(a.eventID)

	if got := a.dialStatus(t, channel, ""); got != http.StatusForbidden {
		t.Errorf("anonymous dial status = %d, want 403", got)
	}
	if got := a.dialStatus(t, channel, a.token(t, a.stranger)); got != http.StatusForbidden {
		t.Errorf("stranger dial status = %d, want 403", got)
	}
	if got := a.dialStatus(t, channel, "garbage"); got != http.StatusForbidden {
		t.Errorf("unresolvable credential dial status = %d, want 403", got)
	}

	hostConn := a.subscribe(t, channel, a.token(t, a.host), 1)
	globalConn := a.subscribe(t, services.GlobalEventsChannel, "", 1)

	res, body := a.upload(t, fmt.Sprintf("/roundsubmissions/%d/file", sub), a.token(t, a.participant),
		part{field: "file", filename: "take1.mp3", content: "ID3"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200 (body %q)", res.StatusCode, body)
	}

	hostConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := hostConn.ReadMessage()
	if err != nil {
		t.Fatalf("host read: %v", err)
	}
	var scoped services.EventChangedPayload
	if err := json.Unmarshal(data, &scoped); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if scoped.EventChanged.Event.ID != a.eventID {
		t.Errorf("scoped event id = %d, want %d", scoped.EventChanged.Event.ID, a.eventID)
	}

	// The private event never reaches the open global channel.
	globalConn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, data, err := globalConn.ReadMessage(); err == nil {
		t.Errorf("global subscriber received %s", data)
	}
}

func TestWebSocketGlobalChannelCarriesPublicEvents(t *testing.T) {
	t.Parallel()
	a := newApp(t, models.Event{Status: models.EventStatusStarted, IsPublic: true, AreChangesVisible: true})
	sub := dbtest.InsertSubmission(t, a.db, models.RoundSubmission{
		EventID: a.eventID, RoundID: a.currentRound, ParticipantID: a.participant,
		Status: models.SubmissionStatusStarted,
	})

	globalConn := a.subscribe(t, services.GlobalEventsChannel, "", 1)
	scopedConn := a.subscribe(t, services.EventChannel(a.eventID), "", 1)

	res, body := a.upload(t, fmt.Sprintf("/roundsubmissions/%d/file", sub), a.token(t, a.participant),
		part{field: "file", filename: "take1.mp3", content: "ID3"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200 (body %q)", res.StatusCode, body)
	}

	globalConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := globalConn.ReadMessage()
	if err != nil {
		t.Fatalf("global read: %v", err)
	}
	var global services.EventsChangedPayload
	if err := json.Unmarshal(data, &global); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if len(global.EventsChanged) != 1 || global.EventsChanged[0].ID != a.eventID {
		t.Errorf("global events = %+v, want event %d", global.EventsChanged, a.eventID)
	}

	scopedConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := scopedConn.ReadMessage(); err != nil {
		t.Errorf("scoped read: %v", err)
	}
}
