package api

import (
	"net/http"
	"time"

	"weeksuntil/internal/models"
	"weeksuntil/internal/service"

	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	StartDate string `json:"start_date"`
	Deadline  string `json:"deadline"`
	Emoji     string `json:"emoji"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
		return
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deadline; expected YYYY-MM-DD")
		return
	}

	user, err := s.users.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		StartDate: startDate,
		Deadline:  deadline,
		Emoji:     req.Emoji,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.issueToken(w, r, user, http.StatusCreated)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.issueToken(w, r, user, http.StatusOK)
}

func (s *HTTPServer) handleTelegramAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var data service.TelegramAuthData
	if err := decodeJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.TelegramLogin(r.Context(), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.issueToken(w, r, user, http.StatusOK)
}

func (s *HTTPServer) issueToken(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := s.users.Tokens().Issue(user)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to issue token")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name"`
	Password  *string `json:"password"`
	StartDate *string `json:"start_date"`
	Deadline  *string `json:"deadline"`
	Emoji     *string `json:"emoji"`
}

func (s *HTTPServer) handleUpdateMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	input := service.UpdateProfileInput{
		FullName: req.FullName,
		Password: req.Password,
		Emoji:    req.Emoji,
	}
	if req.StartDate != nil {
		d, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
			return
		}
		input.StartDate = &d
	}
	if req.Deadline != nil {
		d, err := time.Parse(dateLayout, *req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline; expected YYYY-MM-DD")
			return
		}
		input.Deadline = &d
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
