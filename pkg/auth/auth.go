package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

const (
	tokenTTL   = 24 * time.Hour
	bcryptCost = 12
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies admin tokens and API keys
type Authenticator struct {
	jwtSecret    []byte
	masterSecret []byte
}

// NewAuthenticator creates an authenticator from the configured secrets
func NewAuthenticator(jwtSecret, masterSecret string) *Authenticator {
	return &Authenticator{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func (a *Authenticator) CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateHMACKey creates a signed API key of the form <userID>.<signature>
func (a *Authenticator) GenerateHMACKey(userID string) string {
	return userID + "." + a.sign(userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user id
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", ErrInvalidKeyFormat
	}
	userID, provided := key[:idx], key[idx+1:]

	// constant-time comparison
	if !hmac.Equal([]byte(provided), []byte(a.sign(userID))) {
		return "", ErrInvalidSignature
	}
	return userID, nil
}

func (a *Authenticator) sign(userID string) string {
	h := hmac.New(sha256.New, a.masterSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// SignHMAC signs userID with secret. Used by the offline key generator.
func SignHMAC(secret, userID string) string {
	return NewAuthenticator("", secret).GenerateHMACKey(userID)
}

// EnsureAdminExists creates the admin user when the table is empty.
// It reports whether a user was created.
func EnsureAdminExists(db *gorm.DB, username, password string) (bool, error) {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
