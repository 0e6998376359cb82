package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YotaroKono/sato-api/internal/middleware"
	"github.com/YotaroKono/sato-api/internal/models"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/pkg/dto"
	"github.com/YotaroKono/sato-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupInviteTest(t *testing.T) (*testutil.MockGroupService, *testutil.MockInvitationService, *testutil.MockPendingInviteService, *testutil.MockHub, *InviteHandler, *services.JWTService) {
	t.Helper()
	mockGroupService := new(testutil.MockGroupService)
	mockInvitationService := new(testutil.MockInvitationService)
	mockPendingService := new(testutil.MockPendingInviteService)
	mockHub := new(testutil.MockHub)
	handler := NewInviteHandler(mockGroupService, mockInvitationService, mockPendingService, mockHub)
	jwtSvc := services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
	return mockGroupService, mockInvitationService, mockPendingService, mockHub, handler, jwtSvc
}

func TestInviteHandler_GetInvitation_Success(t *testing.T) {
	mockGroupService, mockInvitationService, _, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	groupID := uuid.New()
	token := "current-invite-token"
	expiresAt := time.Now().Add(services.InvitationTTL)

	issue := &services.InvitationIssue{
		Invitation: &models.Invitation{
			ID:        uuid.New(),
			GroupID:   groupID,
			Token:     &token,
			ExpiresAt: expiresAt,
		},
		Token:      token,
		Link:       "https://sato-one.vercel.app/invite/" + token,
		SchemeLink: "sato://invite/" + token,
	}

	mockGroupService.On("IsMember", mock.Anything, groupID, userID).Return(true, nil)
	mockInvitationService.On("GetOrCreateInvitation", mock.Anything, groupID).Return(issue, nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/groups/:id/invitation", handler.GetInvitation)

	authToken := generateTestToken(t, jwtSvc, userID, "hanako@example.com")
	req := httptest.NewRequest(http.MethodGet, "/groups/"+groupID.String()+"/invitation", nil)
	req.Header.Set("Authorization", "Bearer "+authToken)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.InvitationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, token, response.Token)
	assert.Equal(t, "https://sato-one.vercel.app/invite/"+token, response.Link)
	assert.Equal(t, "sato://invite/"+token, response.SchemeLink)

	mockGroupService.AssertExpectations(t)
	mockInvitationService.AssertExpectations(t)
}

func TestInviteHandler_GetInvitation_NotMember(t *testing.T) {
	mockGroupService, _, _, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	groupID := uuid.New()

	mockGroupService.On("IsMember", mock.Anything, groupID, userID).Return(false, nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/groups/:id/invitation", handler.GetInvitation)

	authToken := generateTestToken(t, jwtSvc, userID, "hanako@example.com")
	req := httptest.NewRequest(http.MethodGet, "/groups/"+groupID.String()+"/invitation", nil)
	req.Header.Set("Authorization", "Bearer "+authToken)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	mockGroupService.AssertExpectations(t)
}

func TestInviteHandler_Join_Success(t *testing.T) {
	_, mockInvitationService, mockPendingService, mockHub, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	group := &models.Group{
		ID:          uuid.New(),
		Name:        "佐藤家",
		OwnerUserID: uuid.New(),
		CreatedAt:   time.Now(),
	}
	link := "https://sato-one.vercel.app/invite/some-valid-token"

	mockInvitationService.On("JoinGroup", mock.Anything, userID, link).Return(group, nil)
	mockPendingService.On("Clear", mock.Anything, userID).Return(nil)
	mockHub.On("BroadcastMemberJoined", group.ID, userID, mock.Anything).Return()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/invites/join", handler.Join)

	jsonBody, _ := json.Marshal(dto.JoinGroupRequest{Link: link})

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")
	req := httptest.NewRequest(http.MethodPost, "/invites/join", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.GroupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, group.ID, response.ID)
	assert.Equal(t, "佐藤家", response.Name)

	mockInvitationService.AssertExpectations(t)
	mockPendingService.AssertExpectations(t)
	mockHub.AssertExpectations(t)
}

func TestInviteHandler_Join_AlreadyInGroup(t *testing.T) {
	_, mockInvitationService, _, mockHub, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	link := "sato://invite/some-token"

	mockInvitationService.On("JoinGroup", mock.Anything, userID, link).Return(nil, services.ErrAlreadyInGroup)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/invites/join", handler.Join)

	jsonBody, _ := json.Marshal(dto.JoinGroupRequest{Link: link})

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")
	req := httptest.NewRequest(http.MethodPost, "/invites/join", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_IN_GROUP")

	mockInvitationService.AssertExpectations(t)
	mockHub.AssertNotCalled(t, "BroadcastMemberJoined", mock.Anything, mock.Anything, mock.Anything)
}

func TestInviteHandler_Join_InvalidInvitation(t *testing.T) {
	_, mockInvitationService, _, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	link := "https://sato-one.vercel.app/invite/expired-or-unknown"

	mockInvitationService.On("JoinGroup", mock.Anything, userID, link).Return(nil, services.ErrInvalidInvitation)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/invites/join", handler.Join)

	jsonBody, _ := json.Marshal(dto.JoinGroupRequest{Link: link})

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")
	req := httptest.NewRequest(http.MethodPost, "/invites/join", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	mockInvitationService.AssertExpectations(t)
}

func TestInviteHandler_Join_JoinFailed(t *testing.T) {
	_, mockInvitationService, _, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	link := "bare-token"

	mockInvitationService.On("JoinGroup", mock.Anything, userID, link).Return(nil, services.ErrJoinFailed)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/invites/join", handler.Join)

	jsonBody, _ := json.Marshal(dto.JoinGroupRequest{Link: link})

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")
	req := httptest.NewRequest(http.MethodPost, "/invites/join", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOIN_FAILED")

	mockInvitationService.AssertExpectations(t)
}

func TestInviteHandler_Join_MissingLink(t *testing.T) {
	_, _, _, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/invites/join", handler.Join)

	jsonBody, _ := json.Marshal(dto.JoinGroupRequest{Link: ""})

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")
	req := httptest.NewRequest(http.MethodPost, "/invites/join", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "link is required")
}

func TestInviteHandler_Pending_SaveGetClear(t *testing.T) {
	_, _, mockPendingService, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()
	token := "parked-token"

	mockPendingService.On("Save", mock.Anything, userID, token).Return(nil)
	mockPendingService.On("Get", mock.Anything, userID).Return(token, nil)
	mockPendingService.On("Clear", mock.Anything, userID).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/invites/pending", handler.SavePending)
	app.Get("/invites/pending", handler.GetPending)
	app.Delete("/invites/pending", handler.ClearPending)

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")

	jsonBody, _ := json.Marshal(dto.PendingInviteRequest{Token: token})
	req := httptest.NewRequest(http.MethodPost, "/invites/pending", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/invites/pending", nil)
	req.Header.Set("Authorization", "Bearer "+authToken)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.PendingInviteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, token, response.Token)

	req = httptest.NewRequest(http.MethodDelete, "/invites/pending", nil)
	req.Header.Set("Authorization", "Bearer "+authToken)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	mockPendingService.AssertExpectations(t)
}

func TestInviteHandler_GetPending_None(t *testing.T) {
	_, _, mockPendingService, _, handler, jwtSvc := setupInviteTest(t)

	userID := uuid.New()

	mockPendingService.On("Get", mock.Anything, userID).Return("", nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/invites/pending", handler.GetPending)

	authToken := generateTestToken(t, jwtSvc, userID, "taro@example.com")
	req := httptest.NewRequest(http.MethodGet, "/invites/pending", nil)
	req.Header.Set("Authorization", "Bearer "+authToken)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	mockPendingService.AssertExpectations(t)
}
