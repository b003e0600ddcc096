package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/utils"
)

// RequireRole lets the request through when the role JWTAuth stored matches
// one of allowed, ignoring case. Must run after JWTAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	roles := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a = normRole(a); a != "" {
			roles = append(roles, a)
		}
	}

	return func(c *gin.Context) {
		role := normRole(c.GetString(CtxRole))
		switch {
		case role == "":
			abort(c, http.StatusForbidden, utils.CodeForbidden, "forbidden")
		case !slices.Contains(roles, role):
			abort(c, http.StatusForbidden, utils.CodeForbidden, "insufficient role")
		default:
			c.Next()
		}
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireRole(utils.RoleAdmin) }

func normRole(r string) string { return strings.ToLower(strings.TrimSpace(r)) }
