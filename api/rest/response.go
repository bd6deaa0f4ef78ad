package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/audit"
	"github.com/santosrp/clanhub/server/membership"
	mw "github.com/santosrp/clanhub/server/middleware"
	"github.com/santosrp/clanhub/server/model"
	"gorm.io/gorm"
)

// writeError maps lifecycle errors to HTTP status codes with the uniform
// {"success": false, "error": msg} body. Unknown errors become a generic 500
// so internals never leak to clients.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, membership.ErrValidation):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, membership.ErrUnauthorized):
		status = http.StatusUnauthorized
		msg = err.Error()
	case errors.Is(err, membership.ErrForbidden):
		status = http.StatusForbidden
		msg = err.Error()
	case errors.Is(err, membership.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// currentUser loads the acting user's row from the session user id.
// Returns nil for anonymous requests or a stale session pointing at a
// deleted user.
func currentUser(c *gin.Context, db *gorm.DB) *model.User {
	uid := mw.GetUserID(c)
	if uid == 0 {
		return nil
	}
	var u model.User
	if err := db.First(&u, uid).Error; err != nil {
		return nil
	}
	return &u
}

// actorOf builds the authorization actor for a user row; nil maps to the
// anonymous actor.
func actorOf(u *model.User) membership.Actor {
	if u == nil {
		return membership.Actor{}
	}
	return membership.ActorFromUser(u)
}

// logAudit enqueues an audit row for a mutating operation.
func logAudit(svc *audit.Service, c *gin.Context, u *model.User, action string, req, resp interface{}, err error, start time.Time) {
	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		Action:     action,
		Request:    req,
		Response:   resp,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if u != nil {
		entry.ActorID = &u.ID
		entry.ActorName = u.Name
	}
	if err != nil {
		entry.Error = err.Error()
	}
	svc.Log(entry)
}
