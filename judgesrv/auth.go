package judgesrv

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenCookie   = "token"
	tokenLifetime = 365 * 24 * time.Hour
)

func (s *Server) issueToken(userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

func (s *Server) validateToken(tokenStr string) (userID string, err error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) { return s.jwtKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	return parsed.Claims.GetSubject()
}

// authenticate resolves the session cookie to a stored account, writing a
// structured 401 and returning nil when the request has no valid session.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) *storedUser {
	cookie, err := r.Cookie(tokenCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
		return nil
	}
	userID, err := s.validateToken(cookie.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session token")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unknown account")
		return nil
	}
	return u
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
