package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/middleware"
	"reviewhub/internal/httpapi/permission"
	"reviewhub/internal/httpapi/service"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) List(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}

	var pq dto.PaginationQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pq.Clamp()

	resp, err := h.commentService.ListByReview(c.Request.Context(), reviewID, pq.Page, pq.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Get(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetByID(c.Request.Context(), reviewID, commentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToCommentResponse(comment))
}

func (h *CommentHandler) Create(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if !permission.AuthorOrModeratorOrAdmin(id, c.Request.Method) {
		forbidden(c)
		return
	}

	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.commentService.Create(c.Request.Context(), id.User, reviewID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CommentHandler) Update(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetByID(c.Request.Context(), reviewID, commentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	id := middleware.CurrentIdentity(c)
	if !permission.AuthorOrModeratorOrAdminObject(id, c.Request.Method, comment.AuthorID) {
		forbidden(c)
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.commentService.Update(c.Request.Context(), comment, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetByID(c.Request.Context(), reviewID, commentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	id := middleware.CurrentIdentity(c)
	if !permission.AuthorOrModeratorOrAdminObject(id, c.Request.Method, comment.AuthorID) {
		forbidden(c)
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), comment); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
