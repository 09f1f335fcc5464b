package controllers

import (
	"net/http"
	"strconv"

	"chromebook_lending/app"
	"chromebook_lending/db"
	"chromebook_lending/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct {
	repo    *db.Repo
	appSess *session.AppSessionStore
	cfg     app.Config
}

func GetUserController(repo *db.Repo, appSess *session.AppSessionStore, cfg app.Config) *UserController {
	return &UserController{repo: repo, appSess: appSess, cfg: cfg}
}

// GET /api/users?q=&page=&size=
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "user id is required"})
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	user, err := uc.repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	credCount, _ := uc.repo.CountCredentials(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"user": user, "credentials": credCount})
}

// DELETE /api/users/:id — removes the account and revokes every session.
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	if err := uc.repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	_ = uc.appSess.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
