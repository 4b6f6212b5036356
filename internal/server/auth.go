package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// authClaims is the token body handed to clients: enough to identify
// the caller without a lookup, nothing more.
type authClaims struct {
	jwt.RegisteredClaims
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

func (s *Server) issueToken(player Player) (string, error) {
	now := timeNowUTC()
	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.JWTExpiryHours) * time.Hour)),
		},
		PlayerID: player.ID,
		Name:     player.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) parseToken(raw string) (authClaims, error) {
	var claims authClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return authClaims{}, errForbidden("invalid token")
	}
	return claims, nil
}

// callerFromRequest resolves the caller's player id from a bearer
// token when one is supplied.
func (s *Server) callerFromRequest(r *http.Request) (int, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return 0, false
	}
	claims, err := s.parseToken(strings.TrimPrefix(header, prefix))
	if err != nil {
		return 0, false
	}
	return claims.PlayerID, true
}
