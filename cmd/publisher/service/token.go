package service

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/inkwell/publisher/cmd/publisher/models"
)

// generateTokens issues an HS256 access/refresh pair for a user id
func (s *UserService) generateTokens(userID string) (*models.TokenPair, error) {
	accessToken, err := s.signToken(userID, s.auth.AccessTokenTTL, s.auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.signToken(userID, s.auth.RefreshTokenTTL, s.auth.JWTRefreshSecret)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) signToken(userID string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := &jwt.StandardClaims{
		ExpiresAt: now.Add(ttl).Unix(),
		Id:        uuid.New().String(),
		IssuedAt:  now.Unix(),
		Issuer:    "publisher",
		Subject:   userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseAccessToken validates an access token and returns its subject
func (s *UserService) parseAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.auth.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("token missing subject")
	}

	return subject, nil
}
