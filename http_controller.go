package access

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes user resolution, role management, and
// credential linking over a JSON API.
type HTTPController struct {
	resolver *Resolver
	deriver  *Deriver
	creator  *CreateUserHandler
	editor   *EditUserHandler
	deleter  *DeleteUserHandler
	linker   CredentialLinker
	config   HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// Debug dumps request payloads through the configured logger
	Debug bool

	// Logger used for debug and error output (default: package logger)
	Logger Logger

	// ErrorHandler handles errors (optional). When unset errors are
	// rendered as JSON with a status derived from their category.
	ErrorHandler func(ctx router.Context, err error) error
}

// NewHTTPController creates the admin API controller. The resolver and
// deriver are required; command handlers and the linker may be nil, in
// which case the corresponding routes return StatusNotImplemented.
func NewHTTPController(resolver *Resolver, deriver *Deriver, cfg HTTPConfig) *HTTPController {
	if resolver == nil {
		panic("http controller: resolver is required")
	}
	if deriver == nil {
		deriver = NewDeriver(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}

	return &HTTPController{
		resolver: resolver,
		deriver:  deriver,
		config:   cfg,
	}
}

// WithCommands wires the write-side command handlers.
func (c *HTTPController) WithCommands(creator *CreateUserHandler, editor *EditUserHandler, deleter *DeleteUserHandler) *HTTPController {
	c.creator = creator
	c.editor = editor
	c.deleter = deleter
	return c
}

// WithLinker wires the credential linking state machine.
func (c *HTTPController) WithLinker(linker CredentialLinker) *HTTPController {
	c.linker = linker
	return c
}

// RegisterRoutes registers the admin API routes on the given group.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/apps", c.ListApps)
	group.Post("/users", c.CreateUser)
	group.Get("/users/:slug", c.ShowUser)
	group.Put("/users/:slug", c.EditUser)
	group.Delete("/users/:slug", c.DeleteUser)
	group.Get("/users/:slug/apps", c.ListUserApps)
	group.Post("/users/:slug/credentials", c.BeginLink)
	group.Post("/users/:slug/credentials/confirm", c.ConfirmLink)
	group.Delete("/users/:slug/credentials/:type", c.Unlink)
}

// UserView is the JSON projection of a resolved user.
type UserView struct {
	ID             string          `json:"id"`
	ProviderID     string          `json:"provider_id,omitempty"`
	Email          string          `json:"email"`
	Name           string          `json:"name"`
	Roles          []string        `json:"roles"`
	Status         UserStatus      `json:"status"`
	RoleLabel      string          `json:"role_label"`
	Apps           []AppAccessView `json:"apps"`
	LinkedAccounts LinkedAccounts  `json:"linked_accounts"`
}

// AppAccessView describes one application a user can access.
type AppAccessView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      AppRole   `json:"role"`
	RoleLabel string    `json:"role_label"`
	Status    AppStatus `json:"status"`
}

func (c *HTTPController) userView(user *User) UserView {
	apps := c.deriver.AccessibleApps(user.Roles)
	views := make([]AppAccessView, 0, len(apps))
	for _, app := range apps {
		views = append(views, AppAccessView{
			ID:        app.ID,
			Name:      app.Name,
			Role:      c.deriver.Catalog().AppRole(app.ID, user.Roles),
			RoleLabel: c.deriver.DisplayRoleLabel(app.ID, user.Roles),
			Status:    app.Status,
		})
	}

	adminPanelID, _ := c.deriver.Catalog().AppIDByName(AdminPanelApp)

	return UserView{
		ID:             user.ID.String(),
		ProviderID:     user.ProviderID,
		Email:          user.Email,
		Name:           user.Name,
		Roles:          user.Roles,
		Status:         c.deriver.ComputedStatus(user),
		RoleLabel:      c.deriver.DisplayRoleLabel(adminPanelID, user.Roles),
		Apps:           views,
		LinkedAccounts: user.LinkedAccounts,
	}
}

// ListApps returns the application catalog.
func (c *HTTPController) ListApps(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"apps": c.deriver.Catalog().Apps(),
	})
}

// ShowUser resolves a slug in any supported shape and returns the user
// with derived access information.
func (c *HTTPController) ShowUser(ctx router.Context) error {
	slug := ctx.Param("slug")

	user, err := c.resolver.Resolve(ctx.Context(), slug)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, c.userView(user))
}

// ListUserApps returns the applications a user can access.
func (c *HTTPController) ListUserApps(ctx router.Context) error {
	slug := ctx.Param("slug")

	user, err := c.resolver.Resolve(ctx.Context(), slug)
	if err != nil {
		return c.handleError(ctx, err)
	}

	view := c.userView(user)
	return ctx.JSON(router.StatusOK, map[string]any{
		"apps": view.Apps,
	})
}

// CreateUser provisions a new user record.
func (c *HTTPController) CreateUser(ctx router.Context) error {
	if c.creator == nil {
		return ctx.JSON(http.StatusNotImplemented, map[string]string{
			"error": "user creation not configured",
		})
	}

	event := CreateUserMessage{}
	if err := ctx.Bind(&event); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid payload",
		})
	}

	c.debugPayload("create user", event)

	user, err := c.creator.Execute(ctx.Context(), event)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, c.userView(user))
}

// EditUser applies a partial update, including role sync from an app
// selection when "apps" is present in the payload.
func (c *HTTPController) EditUser(ctx router.Context) error {
	if c.editor == nil {
		return ctx.JSON(http.StatusNotImplemented, map[string]string{
			"error": "user editing not configured",
		})
	}

	event := EditUserMessage{}
	if err := ctx.Bind(&event); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid payload",
		})
	}
	event.Identifier = ctx.Param("slug")

	c.debugPayload("edit user", event)

	user, err := c.editor.Execute(ctx.Context(), event)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, c.userView(user))
}

// DeleteUser removes a user. Super admin aliases are rejected before
// any lookup happens.
func (c *HTTPController) DeleteUser(ctx router.Context) error {
	if c.deleter == nil {
		return ctx.JSON(http.StatusNotImplemented, map[string]string{
			"error": "user deletion not configured",
		})
	}

	event := DeleteUserMessage{Identifier: ctx.Param("slug")}

	if err := c.deleter.Execute(ctx.Context(), event); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]bool{
		"deleted": true,
	})
}

// LinkPayload starts or confirms a credential link.
type LinkPayload struct {
	Type  CredentialType `json:"type"`
	Value string         `json:"value"`
	Token string         `json:"token"`
	Proof string         `json:"proof"`
}

// BeginLink starts credential verification for a user.
func (c *HTTPController) BeginLink(ctx router.Context) error {
	if c.linker == nil {
		return ctx.JSON(http.StatusNotImplemented, map[string]string{
			"error": "credential linking not configured",
		})
	}

	payload := LinkPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid payload",
		})
	}

	if !payload.Type.IsValid() {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "unknown credential type",
		})
	}

	user, err := c.resolver.ResolveForWrite(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		return c.handleError(ctx, err)
	}

	req, err := c.linker.Begin(ctx.Context(), c.actor(ctx), user, payload.Type, payload.Value)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"token": req.Token,
		"state": string(LinkStatePending),
	})
}

// ConfirmLink completes a pending credential verification.
func (c *HTTPController) ConfirmLink(ctx router.Context) error {
	if c.linker == nil {
		return ctx.JSON(http.StatusNotImplemented, map[string]string{
			"error": "credential linking not configured",
		})
	}

	payload := LinkPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid payload",
		})
	}

	user, err := c.resolver.ResolveForWrite(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		return c.handleError(ctx, err)
	}

	req := &LinkRequest{Credential: payload.Type, Value: payload.Value, Token: payload.Token}
	updated, err := c.linker.Confirm(ctx.Context(), c.actor(ctx), user, req, payload.Proof)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, c.userView(updated))
}

// Unlink removes a linked credential from a user.
func (c *HTTPController) Unlink(ctx router.Context) error {
	if c.linker == nil {
		return ctx.JSON(http.StatusNotImplemented, map[string]string{
			"error": "credential linking not configured",
		})
	}

	credential := CredentialType(ctx.Param("type"))
	if !credential.IsValid() {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "unknown credential type",
		})
	}

	user, err := c.resolver.ResolveForWrite(ctx.Context(), ctx.Param("slug"))
	if err != nil {
		return c.handleError(ctx, err)
	}

	updated, err := c.linker.Unlink(ctx.Context(), c.actor(ctx), user, credential)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, c.userView(updated))
}

func (c *HTTPController) actor(ctx router.Context) ActorRef {
	return ActorRef{ID: "admin-console", Type: "console"}
}

func (c *HTTPController) debugPayload(label string, payload any) {
	if !c.config.Debug {
		return
	}
	c.config.Logger.Debug("%s payload: %s", label, print.MaybePrettyJSON(payload))
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		c.config.Logger.Error("request failed: %v", err)
	}

	return ctx.JSON(status, map[string]string{
		"error": err.Error(),
	})
}

func statusForError(err error) int {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return router.StatusInternalServerError
	}

	switch rich.Category {
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryOperation:
		return http.StatusServiceUnavailable
	default:
		return router.StatusInternalServerError
	}
}
