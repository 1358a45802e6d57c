package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/internal/logger"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

const tokenTTL = 24 * time.Hour

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs admin tokens and API keys with the configured secrets
type Authenticator struct {
	jwtSecret    []byte
	masterSecret []byte
	now          func() time.Time
}

// NewAuthenticator creates an Authenticator from the JWT and API master secrets
func NewAuthenticator(jwtSecret, masterSecret string) *Authenticator {
	return &Authenticator{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
		now:          time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for an admin
func (a *Authenticator) CreateToken(username string) (string, error) {
	now := a.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
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
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (a *Authenticator) GenerateHMACKey(userID string) string {
	return userID + "." + a.sign(userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its user id
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	userID, signature, ok := strings.Cut(key, ".")
	if !ok || userID == "" || strings.Contains(signature, ".") {
		return "", apperrors.ErrInvalidKeyFormat
	}

	if !hmac.Equal([]byte(signature), []byte(a.sign(userID))) {
		return "", apperrors.ErrInvalidKeySignature
	}

	return userID, nil
}

func (a *Authenticator) sign(userID string) string {
	h := hmac.New(sha256.New, a.masterSecret)
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}

// Login checks admin credentials and returns a signed token
func (a *Authenticator) Login(db *gorm.DB, username, password string) (string, error) {
	var user database.MasterUser
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return "", apperrors.ErrCredentialsInvalid
		}
		return "", err
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		return "", apperrors.ErrCredentialsInvalid
	}

	return a.CreateToken(user.Username)
}

// VerifyAPIKey looks up a stored API key and stamps its last use
func VerifyAPIKey(db *gorm.DB, key string) (*database.APIKey, error) {
	var apiKey database.APIKey
	if err := db.Where("key = ?", key).First(&apiKey).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.ErrAPIKeyNotFound
		}
		return nil, err
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := db.Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, err
	}

	return &apiKey, nil
}

// EnsureAdminExists creates the configured admin when no admin exists yet
func EnsureAdminExists(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	logger.New().WithField("username", username).Info("default admin user created")
	return nil
}
