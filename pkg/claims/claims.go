package claims

import jwt "github.com/dgrijalva/jwt-go"

type contextKey string

const (
	TokenContextKey contextKey = "token"
)

type User struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// Claims is the payload of a session token. SessionID names the row in the
// sessions table that must still be live for the token to authenticate.
type Claims struct {
	SessionID string `json:"sid"`
	User      User   `json:"user"`
	jwt.StandardClaims
}
