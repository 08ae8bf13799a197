package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard/internal/cache"
	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const (
	claimsContextKey = "auth.claims"
	userContextKey   = "auth.user"

	userCacheTTL = 5 * time.Minute
)

// UserFinder loads a user by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// UserCacheKey is the cache key under which resolved users are stored.
func UserCacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// Middleware authenticates requests with a bearer token. It rejects missing,
// invalid, expired and revoked tokens, and tokens whose user no longer exists,
// with an Unauthorized error before the handler runs.
func Middleware(jwtService *JWTService, tokenStore TokenStoreInterface, users UserFinder, userCache *cache.Client, logger *zap.Logger) echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return jwtService.VerifyToken(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr
			}
			return apperrors.Unauthorized("missing or malformed bearer token")
		},
	})

	resolve := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentClaims(c)
			if claims == nil {
				return apperrors.Unauthorized("invalid token")
			}
			ctx := c.Request().Context()

			revoked, err := tokenStore.IsRevoked(ctx, claims.ID)
			if err != nil {
				return apperrors.Internal(fmt.Errorf("check token revocation: %w", err))
			}
			if revoked {
				return apperrors.Unauthorized("token has been revoked")
			}

			user, err := resolveUser(ctx, users, userCache, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperrors.Unauthorized("user no longer exists")
				}
				logger.Error("resolve authenticated user", zap.String("user_id", claims.UserID), zap.Error(err))
				return apperrors.Internal(err)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(resolve(next))
	}
}

func resolveUser(ctx context.Context, users UserFinder, userCache *cache.Client, id string) (*model.User, error) {
	var cached model.User
	if userCache.GetJSON(ctx, UserCacheKey(id), &cached) && cached.ID == id {
		return &cached, nil
	}

	user, err := users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	safe := *user
	safe.PasswordHash = ""
	userCache.SetJSON(ctx, UserCacheKey(id), &safe, userCacheTTL)
	return &safe, nil
}

// CurrentClaims returns the verified token claims, or nil outside the middleware.
func CurrentClaims(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}

// CurrentUser returns the authenticated user, or nil outside the middleware.
// The record may come from cache and never carries the password hash.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userContextKey).(*model.User)
	return user
}
