package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	AdminTokenHeader = "X-Admin-Token"

	tokenIssuer    = "fulfillment"
	driverIDCtxKey = "driverID"
)

var errMissingBearer = errors.New("missing bearer token")

// IssueDriverToken signs an HS256 token whose subject is the driver id.
func IssueDriverToken(secret []byte, driverID kernel.UUID, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   driverID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseDriverToken(secret []byte, header string) (kernel.UUID, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return kernel.UUID{}, errMissingBearer
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return kernel.UUID{}, err
	}
	return kernel.UUIDFromString(claims.Subject)
}

// DriverAuth authenticates the driver and stores its id on the context.
func DriverAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			driverID, err := parseDriverToken(secret, c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, newError(http.StatusUnauthorized, "invalid driver token"))
			}
			c.Set(driverIDCtxKey, driverID)
			return next(c)
		}
	}
}

func authenticatedDriver(c echo.Context) (kernel.UUID, bool) {
	id, ok := c.Get(driverIDCtxKey).(kernel.UUID)
	return id, ok
}

// AdminAuth compares the static operator token in constant time.
func AdminAuth(token string) echo.MiddlewareFunc {
	expected := []byte(token)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(AdminTokenHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				return c.JSON(http.StatusUnauthorized, newError(http.StatusUnauthorized, "invalid admin token"))
			}
			return next(c)
		}
	}
}
