package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"booksampler/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_Me(t *testing.T) {
	testCases := []struct {
		name     string
		userID   int64
		setup    func(*MockRepository)
		wantCode int
	}{
		{
			name:   "returns the account without the hash",
			userID: 3,
			setup: func(m *MockRepository) {
				m.EXPECT().GetByID(gomock.Any(), int64(3)).Return(User{ID: 3, Email: "a@b.co", PasswordHash: "secret-hash", Role: RoleUser}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "anonymous",
			setup:    func(*MockRepository) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:   "deleted account",
			userID: 3,
			setup: func(m *MockRepository) {
				m.EXPECT().GetByID(gomock.Any(), int64(3)).Return(User{}, ErrNotFound)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:   "storage error",
			userID: 3,
			setup: func(m *MockRepository) {
				m.EXPECT().GetByID(gomock.Any(), int64(3)).Return(User{}, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := NewMockRepository(ctrl)
			tc.setup(mockRepo)
			handler := NewHTTPHandler(NewService(mockRepo))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.userID > 0 {
				req = req.WithContext(httpx.ContextWithUser(req.Context(), tc.userID, RoleUser))
			}
			w := httptest.NewRecorder()
			handler.Me(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusOK {
				assert.NotContains(t, w.Body.String(), "secret-hash")
				var body struct {
					Data User `json:"data"`
				}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, "a@b.co", body.Data.Email)
			}
		})
	}
}
