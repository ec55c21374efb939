package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/models"
)

const claimsContextKey = "user"

// JWTAuthMiddleware checks for a valid JWT and stores the identity claims in
// the request context. The token is expected to be minted by the external
// auth collaborator; this service only verifies the signature and reads the
// subject id, email and role out of it.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := claimsFromRequest(c, secret)
			if err != nil {
				return err
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuthMiddleware behaves like JWTAuthMiddleware but lets the
// request through anonymously when no Authorization header is present. A
// header that is present but invalid is still rejected.
func OptionalJWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			claims, err := claimsFromRequest(c, secret)
			if err != nil {
				return err
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// RequireRole gates a route group on the role carried in the identity claims
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentClaims(c)
			if claims == nil {
				return apperrors.Unauthorized("Missing identity")
			}
			if claims.Role != role {
				return apperrors.Forbidden("Insufficient role")
			}
			return next(c)
		}
	}
}

// CurrentClaims returns the identity claims stored by the auth middleware,
// or nil for an anonymous request
func CurrentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(claimsContextKey).(*models.JwtCustomClaims)
	return claims
}

func claimsFromRequest(c echo.Context, secret string) (*models.JwtCustomClaims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, apperrors.Unauthorized("Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, apperrors.Unauthorized("Invalid Authorization header format")
	}
	tokenString := parts[1]

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.Unauthorized("Unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		if err == jwt.ErrSignatureInvalid {
			return nil, apperrors.Unauthorized("Invalid token signature")
		}
		return nil, apperrors.Unauthorized("Invalid token")
	}
	if !token.Valid {
		return nil, apperrors.Unauthorized("Invalid token")
	}

	return claims, nil
}
