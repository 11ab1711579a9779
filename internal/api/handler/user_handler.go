package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-debugger/internal/service"
	"github.com/d60-Lab/fanout-debugger/pkg/response"
)

// ListUsers 用户列表
// @Summary 用户列表
// @Tags 用户
// @Success 200 {object} response.Response{data=[]model.User}
// @Router /api/v1/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, users)
}

// GetUser 用户详情
// @Summary 用户详情（含关注关系）
// @Tags 用户
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=service.UserDetail}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	detail, err := h.userService.Detail(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, detail)
}

// ListUserNotifications 用户通知
// @Summary 用户通知列表
// @Tags 用户
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]model.Notification}
// @Router /api/v1/users/{id}/notifications [get]
func (h *Handler) ListUserNotifications(c *gin.Context) {
	list, err := h.userService.Notifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

// MarkNotificationRead 标记已读
// @Summary 标记通知已读
// @Tags 用户
// @Param id path string true "用户ID"
// @Param notification_id path string true "通知ID"
// @Success 200 {object} response.Response{data=model.Notification}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/notifications/{notification_id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.userService.MarkNotificationRead(c.Request.Context(), c.Param("id"), c.Param("notification_id"))
	if errors.Is(err, service.ErrNotificationNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, n)
}
