package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/service"
	"github.com/d60-Lab/fanout-debugger/pkg/response"
)

type createEventRequest struct {
	ActorID  string         `json:"actor_id" binding:"required,uuid"`
	Type     string         `json:"type" binding:"required,event_type"`
	TargetID string         `json:"target_id" binding:"required,uuid"`
	Metadata map[string]any `json:"metadata"`
}

type fanoutResponse struct {
	Event                *model.Event          `json:"event"`
	FanoutLogs           []*model.FanoutLog    `json:"fanout_logs"`
	Notifications        []*model.Notification `json:"notifications"`
	NotificationsCreated int                   `json:"notifications_created"`
}

func newFanoutResponse(res *service.FanoutResult) fanoutResponse {
	return fanoutResponse{
		Event:                res.Event,
		FanoutLogs:           res.Logs,
		Notifications:        res.Notifications,
		NotificationsCreated: len(res.Notifications),
	}
}

type bulkReplayRequest struct {
	EventIDs []string `json:"event_ids" binding:"required,min=1,dive,required"`
}

type bulkReplayResponse struct {
	Queued   []string `json:"queued"`
	Rejected []string `json:"rejected"`
}

// CreateEvent 创建事件并执行 fanout
// @Summary 创建事件并扇出通知
// @Tags 事件
// @Accept json
// @Produce json
// @Param request body createEventRequest true "事件"
// @Success 201 {object} response.Response{data=fanoutResponse}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.processor.ProcessEvent(c.Request.Context(), model.CreateEventInput{
		ActorID:  req.ActorID,
		Type:     model.EventType(req.Type),
		TargetID: req.TargetID,
		Metadata: req.Metadata,
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, newFanoutResponse(res))
}

// ListEvents 事件列表
// @Summary 事件列表（按创建时间倒序）
// @Tags 事件
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.eventQuery.ListEvents(c.Request.Context(), page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// GetEvent 查询单个事件
// @Summary 查询事件
// @Tags 事件
// @Param id path string true "事件ID"
// @Success 200 {object} response.Response{data=model.Event}
// @Failure 404 {object} response.Response
// @Router /api/v1/events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	e, err := h.eventQuery.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.eventError(c, err)
		return
	}
	response.Success(c, e)
}

// GetEventTrace 查询事件的 fanout trace
// @Summary 查询 fanout trace
// @Tags 事件
// @Param id path string true "事件ID"
// @Success 200 {object} response.Response{data=service.EventTrace}
// @Failure 404 {object} response.Response
// @Router /api/v1/events/{id}/trace [get]
func (h *Handler) GetEventTrace(c *gin.Context) {
	tr, err := h.eventQuery.GetTrace(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.eventError(c, err)
		return
	}
	response.Success(c, tr)
}

// ReplayEvent 重放事件
// @Summary 清理旧通知与日志后重新 fanout
// @Tags 重放
// @Param id path string true "事件ID"
// @Success 200 {object} response.Response{data=fanoutResponse}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/events/{id}/replay [post]
func (h *Handler) ReplayEvent(c *gin.Context) {
	res, err := h.replayer.ReplayEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.eventError(c, err)
		return
	}
	response.Success(c, newFanoutResponse(res))
}

// BulkReplay 批量异步重放
// @Summary 批量重放（异步队列）
// @Tags 重放
// @Accept json
// @Produce json
// @Param request body bulkReplayRequest true "事件ID列表"
// @Success 202 {object} response.Response{data=bulkReplayResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/replays [post]
func (h *Handler) BulkReplay(c *gin.Context) {
	var req bulkReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out := bulkReplayResponse{Queued: []string{}, Rejected: []string{}}
	for _, id := range req.EventIDs {
		if h.replayQueue.Enqueue(id) {
			out.Queued = append(out.Queued, id)
		} else {
			out.Rejected = append(out.Rejected, id)
		}
	}
	response.Accepted(c, out)
}

func (h *Handler) eventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrReplayInProgress):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
