package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.LoginRequest
		if !decode(w, r, &req) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		user, ok := s.users[strings.ToLower(req.Email)]
		if !ok || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		if user.TwoFactor {
			preAuth := uuid.NewString()
			s.preAuth[preAuth] = user.ID
			writeJSON(w, http.StatusOK, oauthmodel.TokenResponse{RequiresTwoFactor: true, PreAuthToken: preAuth})
			return
		}

		tokens, err := s.issueTokens(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, tokens)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.RegisterRequest
		if !decode(w, r, &req) {
			return
		}
		if err := users.ValidateEmail(req.Email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := s.AddUser(users.User{Email: req.Email, Name: req.Name}, req.Password, false)
		if errors.Is(err, ErrUserExists) {
			writeError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.mu.Lock()
		tokens, err := s.issueTokens(user)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, tokens)
	}
}

// RefreshHandler rotates the refresh token: the presented one is spent.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.RefreshRequest
		if !decode(w, r, &req) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		userID, ok := s.refreshTokens[req.RefreshToken]
		if s.failRefresh || !ok {
			writeError(w, http.StatusUnauthorized, "refresh token is invalid or expired")
			return
		}
		delete(s.refreshTokens, req.RefreshToken)

		user := s.userByID(userID)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}
		tokens, err := s.issueTokens(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, tokens)
	}
}

func (s *Server) TwoFactorVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.TwoFactorVerifyRequest
		if !decode(w, r, &req) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		userID, ok := s.preAuth[req.PreAuthToken]
		if !ok {
			writeError(w, http.StatusUnauthorized, "pre-auth token is invalid or expired")
			return
		}
		if req.Code != DefaultTwoFactorCode {
			writeError(w, http.StatusUnauthorized, "invalid two-factor code")
			return
		}
		delete(s.preAuth, req.PreAuthToken)

		user := s.userByID(userID)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}
		tokens, err := s.issueTokens(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, tokens)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user.User})
	}
}

func (s *Server) TwoFactorSetupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		secret := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
		writeJSON(w, http.StatusOK, oauthmodel.TwoFactorSetupResponse{
			Secret:     secret,
			OTPAuthURL: "otpauth://totp/Curnce:" + user.Email + "?secret=" + secret + "&issuer=Curnce",
		})
	}
}

func (s *Server) TwoFactorEnableHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.TwoFactorEnableRequest
		if !decode(w, r, &req) {
			return
		}
		user := s.currentUser(r)
		if user == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if req.Code != DefaultTwoFactorCode {
			writeError(w, http.StatusBadRequest, "invalid two-factor code")
			return
		}

		s.mu.Lock()
		user.TwoFactor = true
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"enabled": true})
	}
}

func (s *Server) PasswordChangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.PasswordChangeRequest
		if !decode(w, r, &req) {
			return
		}
		user := s.currentUser(r)
		if user == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.CurrentPassword)) != nil {
			writeError(w, http.StatusForbidden, "current password is incorrect")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.mu.Lock()
		user.PasswordHash = hash
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) PasswordVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.PasswordVerifyRequest
		if !decode(w, r, &req) {
			return
		}
		user := s.currentUser(r)
		if user == nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		valid := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) == nil
		writeJSON(w, http.StatusOK, map[string]any{"valid": valid})
	}
}

func (s *Server) currentUser(r *http.Request) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByID(userIDFrom(r))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
