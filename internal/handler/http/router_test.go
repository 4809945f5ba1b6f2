package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/handler/http/response"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
	"github.com/wecare/escalas-backend/internal/pkg/sse"
	"github.com/wecare/escalas-backend/internal/service/attendance"
)

type fakeCheckIns struct {
	checkin.Service
	err       error
	lastReq   checkin.CheckInRequest
	lastStats checkin.StatsRequest
	lastFix   checkin.CorrectRequest
}

func (f *fakeCheckIns) CheckIn(_ context.Context, req checkin.CheckInRequest) (checkin.CheckInResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return checkin.CheckInResponse{}, f.err
	}
	return checkin.CheckInResponse{ID: "c1", ShiftID: req.ShiftID, Status: checkin.StatusDone}, nil
}

func (f *fakeCheckIns) Stats(_ context.Context, req checkin.StatsRequest) (checkin.StatsResponse, error) {
	f.lastStats = req
	return checkin.StatsResponse{Total: 3, Done: 2}, nil
}

func (f *fakeCheckIns) Correct(_ context.Context, req checkin.CorrectRequest) (checkin.CheckInResponse, error) {
	f.lastFix = req
	return checkin.CheckInResponse{ID: req.ID, Status: req.Status}, nil
}

type fakeShifts struct {
	shift.Service
	err          error
	lastAssign   shift.AssignRequest
	unassigned   [2]string
	lastCalendar shift.CalendarRequest
}

func (f *fakeShifts) Assign(_ context.Context, req shift.AssignRequest) (shift.AssignmentResponse, error) {
	f.lastAssign = req
	if f.err != nil {
		return shift.AssignmentResponse{}, f.err
	}
	return shift.AssignmentResponse{ID: "a1", ShiftID: req.ShiftID, PersonID: req.PersonID}, nil
}

func (f *fakeShifts) Unassign(_ context.Context, shiftID, personID string) error {
	f.unassigned = [2]string{shiftID, personID}
	return nil
}

func (f *fakeShifts) Calendar(_ context.Context, req shift.CalendarRequest) (shift.CalendarResponse, error) {
	f.lastCalendar = req
	return shift.CalendarResponse{Month: req.Month}, nil
}

type fakeNotifications struct {
	notification.Service
}

func (fakeNotifications) List(_ context.Context, recipientID string, limit int) (notification.ListResponse, error) {
	return notification.ListResponse{Total: limit}, nil
}

type testServer struct {
	handler  http.Handler
	jwt      jwt.Service
	hub      *sse.Hub
	checkins *fakeCheckIns
	shifts   *fakeShifts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := jwt.NewJWTService("router-test-secret")
	hub := sse.NewHub()
	ts := &testServer{jwt: svc, hub: hub, checkins: &fakeCheckIns{}, shifts: &fakeShifts{}}
	ts.handler = NewRouter(
		RouterConfig{AppName: "escalas", Version: "test", Env: "test", LogLevel: slog.LevelError, AllowedOrigins: []string{"*"}},
		svc,
		NewCheckInHandler(ts.checkins),
		NewShiftHandler(ts.shifts),
		NewNotificationHandler(fakeNotifications{}, hub, svc),
	)
	return ts
}

func (ts *testServer) token(t *testing.T, id string, role user.Role) string {
	t.Helper()
	token, _, err := ts.jwt.GenerateAccessToken(jwt.Identity{UserID: id, Name: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRouter_CheckInCreate(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]interface{}{"shift_id": "s1", "latitude": -23.55, "longitude": -46.63}

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/checkins", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/checkins", ts.token(t, "p1", user.RoleSocio), body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "s1", ts.checkins.lastReq.ShiftID)
	require.NotNil(t, ts.checkins.lastReq.Latitude)
	assert.InDelta(t, -23.55, *ts.checkins.lastReq.Latitude, 1e-9)
}

func TestRouter_CheckInWindowRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.checkins.err = &attendance.WindowRejectedError{
		WindowStart: time.Date(2024, 1, 15, 6, 45, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 1, 15, 7, 30, 0, 0, time.UTC),
	}

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/checkins", ts.token(t, "p1", user.RoleSocio),
		map[string]interface{}{"shift_id": "s1", "latitude": 0, "longitude": 0})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "2024-01-15T06:45:00Z", resp.Error.Details["window_start"])
	assert.Equal(t, "2024-01-15T07:30:00Z", resp.Error.Details["window_end"])
}

func TestRouter_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkins", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token(t, "p1", user.RoleSocio))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_SupervisorRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/checkins/stats?start=2024-01-01&end=2024-01-31", ts.token(t, "p1", user.RoleSocio), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/checkins/stats?start=2024-01-01&end=2024-01-31", ts.token(t, "sup", user.RoleSupervisor), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-01-01", ts.checkins.lastStats.StartDate)
	assert.Equal(t, "2024-01-31", ts.checkins.lastStats.EndDate)

	rec, _ = ts.do(t, http.MethodPut, "/api/v1/checkins/c9", ts.token(t, "adm", user.RoleAdministrator),
		map[string]interface{}{"status": checkin.StatusAbsent})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c9", ts.checkins.lastFix.ID)
	assert.Equal(t, checkin.StatusAbsent, ts.checkins.lastFix.Status)
}

func TestRouter_ShiftAssignments(t *testing.T) {
	ts := newTestServer(t)
	sup := ts.token(t, "sup", user.RoleSupervisor)

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/shifts/s1/assignments", ts.token(t, "p1", user.RoleSocio),
		map[string]interface{}{"person_id": "p2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/shifts/s1/assignments", sup, map[string]interface{}{"person_id": "p2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", ts.shifts.lastAssign.ShiftID)
	assert.Equal(t, "p2", ts.shifts.lastAssign.PersonID)

	ts.shifts.err = &shift.ConflictError{PersonID: "p2", Conflicts: []shift.Conflict{{Shift: shift.Shift{ID: "s0"}}}}
	rec, resp := ts.do(t, http.MethodPost, "/api/v1/shifts/s1/assignments", sup, map[string]interface{}{"person_id": "p2"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "s0", resp.Error.Details["conflicting_shifts"])

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/shifts/s1/assignments/p2", sup, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"s1", "p2"}, ts.shifts.unassigned)
}

func TestRouter_Calendar(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/shifts/calendar?month=2024-03&sector_id=sec-1", ts.token(t, "p1", user.RoleSocio), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03", ts.shifts.lastCalendar.Month)
	require.NotNil(t, ts.shifts.lastCalendar.SectorID)
	assert.Equal(t, "sec-1", *ts.shifts.lastCalendar.SectorID)
}

func TestRouter_NotificationList(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/notifications?limit=5", ts.token(t, "p1", user.RoleSocio), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":5`)
}

func TestRouter_NotificationStream(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/notifications/sse-token", ts.token(t, "p1", user.RoleSocio), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data notification.SSETokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notifications/stream?token="+body.Data.Token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return ts.hub.SubscriberCount("p1") == 1 }, time.Second, 10*time.Millisecond)
	ts.hub.Publish("p1", sse.Event{ID: "n1", RecipientID: "p1", Name: "notification", Data: map[string]string{"title": "Nova escala"}})

	var frame []string
	for len(frame) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "id:") || len(frame) > 0 {
			frame = append(frame, strings.TrimSpace(line))
		}
	}
	assert.Equal(t, []string{"id: n1", "event: notification", `data: {"title":"Nova escala"}`}, frame)
}

func TestRouter_NotificationStreamRejectsAccessToken(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/notifications/stream?token="+ts.token(t, "p1", user.RoleSocio), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
