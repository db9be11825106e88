// Package web serves the browser console for managing users.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-console/internal/client"
	"user-console/internal/domain"
	"user-console/internal/form"
	"user-console/internal/userlist"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	msgNotFound    = "User not found"
	msgFailed      = "Operation failed"
	msgLoadFailed  = "Failed to load users"
	msgBusy        = "A request for this user is already in progress"
	msgFixFields   = "Please fix the highlighted fields"
	msgUserDeleted = "User deleted"
)

// UserAPI is what the console needs from the users API.
type UserAPI interface {
	userlist.Client
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// Console wires the list, detail, create, edit and delete views.
type Console struct {
	api      UserAPI
	sessions *Sessions
	msgs     form.Messages
	logger   *logrus.Logger
}

func NewConsole(api UserAPI, sessions *Sessions, msgs form.Messages, logger *logrus.Logger) *Console {
	if logger == nil {
		logger = logrus.New()
	}
	return &Console{
		api:      api,
		sessions: sessions,
		msgs:     msgs,
		logger:   logger,
	}
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"detailPath": DetailPath,
		"editPath":   EditPath,
		"deletePath": DeletePath,
	}).ParseFS(templateFS, "templates/*.html")
}

func (h *Console) RegisterRoutes(router *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	router.GET(RootPath, func(c *gin.Context) {
		c.Redirect(http.StatusFound, ListPath)
	})
	router.GET(ListPath, h.listUsers)
	router.GET(NewPath, h.newUser)
	router.POST(NewPath, h.createUser)
	router.GET(detailPattern, h.showUser)
	router.GET(editPattern, h.editUser)
	router.POST(editPattern, h.updateUser)
	router.GET(deletePattern, h.confirmDelete)
	router.POST(deletePattern, h.deleteUser)
	return nil
}

func (h *Console) listUsers(c *gin.Context) {
	store := h.sessions.Store(c)
	store.ClearSelection()

	// every render of the list is a mount; a superseded fetch is dropped by the store
	if err := store.Refresh(c.Request.Context()); err != nil && !errors.Is(err, userlist.ErrStale) {
		h.logger.Warnf("refresh user list: %v", err)
	}

	filter := domain.UserFilter{
		SearchTerm:     c.Query("q"),
		ShowOnlyActive: c.Query("active") == "1",
	}
	snap := store.Snapshot()

	data := gin.H{
		"Users":  userlist.Filter(snap.Users, filter),
		"Total":  len(snap.Users),
		"Filter": filter,
	}
	status := http.StatusOK
	if snap.Status == userlist.StatusFailed {
		data["Error"] = msgLoadFailed
		status = http.StatusBadGateway
	}
	if c.Query(deletedNoticeQ) != "" {
		data["Notice"] = msgUserDeleted
	}
	c.HTML(status, "list", data)
}

func (h *Console) showUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	h.sessions.Store(c).Select(user.ID)
	c.HTML(http.StatusOK, "detail", gin.H{"User": user})
}

func (h *Console) newUser(c *gin.Context) {
	c.HTML(http.StatusOK, "create", gin.H{"Form": form.NewCreateForm(h.msgs)})
}

func (h *Console) createUser(c *gin.Context) {
	store := h.sessions.Store(c)
	f := form.NewCreateForm(h.msgs)
	f.Name = c.PostForm("name")
	f.Email = c.PostForm("email")
	f.Password = c.PostForm("password")

	err := f.Submit(func(in domain.NewUser) error {
		_, err := store.Create(c.Request.Context(), in)
		return err
	})
	if err == nil {
		c.Redirect(http.StatusSeeOther, ListPath)
		return
	}

	f.Password = ""
	status, banner := h.classify(err)
	c.HTML(status, "create", gin.H{"Form": f, "Error": banner})
}

func (h *Console) editUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	h.sessions.Store(c).Select(user.ID)
	c.HTML(http.StatusOK, "edit", gin.H{
		"ID":   user.ID,
		"Form": form.NewEditForm(*user, h.msgs),
	})
}

func (h *Console) updateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	store := h.sessions.Store(c)
	store.Select(id)

	f := form.NewEditForm(domain.User{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		IsActive: checkbox(c.PostForm("is_active")),
	}, h.msgs)
	f.Password = c.PostForm("password")

	err := f.Submit(func(patch domain.UserPatch) error {
		_, err := store.Update(c.Request.Context(), id, patch)
		return err
	})
	if err == nil {
		c.Redirect(http.StatusSeeOther, DetailPath(id))
		return
	}
	if client.IsNotFound(err) {
		h.notFound(c)
		return
	}

	f.Password = ""
	status, banner := h.classify(err)
	c.HTML(status, "edit", gin.H{"ID": id, "Form": f, "Error": banner})
}

func (h *Console) confirmDelete(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "delete", gin.H{"User": user})
}

func (h *Console) deleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	// declining the prompt touches nothing
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, DetailPath(id))
		return
	}

	store := h.sessions.Store(c)
	_, err := store.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, ListPath+"?"+deletedNoticeQ+"="+strconv.FormatInt(id, 10))
	case client.IsNotFound(err):
		h.notFound(c)
	default:
		status, banner := h.classify(err)
		c.HTML(status, "error", gin.H{"Error": banner, "Back": DetailPath(id)})
	}
}

// loadUser fetches the user named by the :id param, rendering the error page on failure.
func (h *Console) loadUser(c *gin.Context) (*domain.User, bool) {
	id, ok := h.parseID(c)
	if !ok {
		return nil, false
	}
	user, err := h.api.Get(c.Request.Context(), id)
	if err != nil {
		if client.IsNotFound(err) {
			h.notFound(c)
			return nil, false
		}
		h.logger.WithField("user_id", id).Errorf("get user: %v", err)
		c.HTML(http.StatusBadGateway, "error", gin.H{"Error": msgFailed, "Back": ListPath})
		return nil, false
	}
	return user, true
}

func (h *Console) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.notFound(c)
		return 0, false
	}
	return id, true
}

func (h *Console) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error", gin.H{"Error": msgNotFound, "Back": ListPath})
}

// classify maps a submission error to a status and a page-level message.
// Diagnostic detail goes to the log only.
func (h *Console) classify(err error) (int, string) {
	switch {
	case errors.Is(err, form.ErrInvalid):
		return http.StatusUnprocessableEntity, msgFixFields
	case client.IsConflict(err):
		return http.StatusBadRequest, h.msgs.EmailTaken
	case client.IsNotFound(err):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, userlist.ErrBusy):
		return http.StatusConflict, msgBusy
	}
	h.logger.Errorf("console request failed: %v", err)
	return http.StatusBadGateway, msgFailed
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
