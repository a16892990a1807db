package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uninest/internal/model"
)

// PrincipalFrom returns the caller stored by JWTAuth.  ok is false on
// routes that are not behind JWTAuth.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
    id, ok := c.Get("user_id").(uint64)
    if !ok || id == 0 {
        return model.Principal{}, false
    }
    role, _ := c.Get("role").(model.Role)
    return model.Principal{UserID: id, Role: role}, true
}

// userID renders the caller for rate limit keys and logs.  Anonymous
// requests are "anon".
func userID(c echo.Context) string {
    if p, ok := PrincipalFrom(c); ok {
        return strconv.FormatUint(p.UserID, 10)
    }
    return "anon"
}
