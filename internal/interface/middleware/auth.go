package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	"github.com/oksasatya/go-physio-booking/pkg/response"
)

const (
	CtxPrincipalKey = "principal"
	CtxUserIDKey    = "userID"
)

// legacyHeaders are the per-role token headers older clients still send.
var legacyHeaders = map[entity.PrincipalKind]string{
	entity.KindPatient: "token",
	entity.KindDoctor:  "dtoken",
	entity.KindAdmin:   "atoken",
}

func bearerToken(c *gin.Context, kind entity.PrincipalKind) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	if name, ok := legacyHeaders[kind]; ok {
		return strings.TrimSpace(c.GetHeader(name))
	}
	return ""
}

// Auth accepts only tokens of the given principal kind whose session is
// still the live one in Redis. On success the Principal and userID are set
// in the Gin context.
func Auth(sessions *application.Sessions, jwt *helpers.JWTManager, kind entity.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c, kind)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "not authorized, login again", nil)
			return
		}
		claims, err := jwt.Verify(token, string(kind))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid token", err.Error())
			return
		}
		if !sessions.Active(c.Request.Context(), kind, claims.Subject, claims.SessionID) {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}

		c.Set(CtxPrincipalKey, entity.Principal{Kind: kind, ID: claims.Subject})
		c.Set(CtxUserIDKey, claims.Subject) // required by rate limiting
		c.Next()
	}
}

// PrincipalFrom returns the principal set by Auth.
func PrincipalFrom(c *gin.Context) (entity.Principal, bool) {
	v, ok := c.Get(CtxPrincipalKey)
	if !ok {
		return entity.Principal{}, false
	}
	p, ok := v.(entity.Principal)
	return p, ok
}
