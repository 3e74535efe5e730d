package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/middleware"
	"reviewhub/internal/httpapi/permission"
	"reviewhub/internal/httpapi/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List is admin-only, with optional username search.
func (h *UserHandler) List(c *gin.Context) {
	if !permission.IsAdmin(middleware.CurrentIdentity(c)) {
		forbidden(c)
		return
	}

	var pq dto.PaginationQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pq.Clamp()

	resp, err := h.userService.List(c.Request.Context(), c.Query("search"), pq.Page, pq.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Create(c *gin.Context) {
	if !permission.IsAdmin(middleware.CurrentIdentity(c)) {
		forbidden(c)
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Get(c *gin.Context) {
	if !permission.IsAdmin(middleware.CurrentIdentity(c)) {
		forbidden(c)
		return
	}

	resp, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Update(c *gin.Context) {
	if !permission.IsAdmin(middleware.CurrentIdentity(c)) {
		forbidden(c)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.userService.Update(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if !permission.IsAdmin(middleware.CurrentIdentity(c)) {
		forbidden(c)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile. The route sits behind required auth,
// so the identity is always present here.
func (h *UserHandler) Me(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	c.JSON(http.StatusOK, dto.FromModelToUserResponse(id.User))
}

// UpdateMe updates the caller's own profile. A role field in the payload is
// ignored, never applied and never rejected.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	id := middleware.CurrentIdentity(c)

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.userService.UpdateMe(c.Request.Context(), id.User, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
