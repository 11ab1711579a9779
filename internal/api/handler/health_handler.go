package handler

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fanout-debugger/pkg/response"
)

type checkResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// runChecks 按名称顺序执行全部探活
func (h *Handler) runChecks(ctx context.Context) (map[string]checkResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.healthChecks))
	for name := range h.healthChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	results := make(map[string]checkResult, len(names))
	for _, name := range names {
		start := time.Now()
		err := h.healthChecks[name](ctx)
		r := checkResult{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			healthy = false
			r.Status = "down"
			r.Error = err.Error()
		}
		results[name] = r
	}
	return results, healthy
}

func healthStatus(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}

// Health 依赖探活
// @Summary 健康检查
// @Tags 系统
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 503 {object} response.Response{data=map[string]interface{}}
// @Router /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	results, healthy := h.runChecks(c.Request.Context())

	services := make(map[string]string, len(results))
	for name, r := range results {
		services[name] = r.Status
	}
	data := gin.H{
		"status":    healthStatus(healthy),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	}
	if !healthy {
		response.ServiceUnavailable(c, "unhealthy", data)
		return
	}
	response.Success(c, data)
}

// HealthDetailed 探活详情：各依赖耗时、进程运行时间与内存
// @Summary 详细健康检查
// @Tags 系统
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 503 {object} response.Response{data=map[string]interface{}}
// @Router /api/health/detailed [get]
func (h *Handler) HealthDetailed(c *gin.Context) {
	results, healthy := h.runChecks(c.Request.Context())

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	data := gin.H{
		"status":         healthStatus(healthy),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"services":       results,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc_bytes":      ms.Alloc,
			"sys_bytes":        ms.Sys,
			"heap_inuse_bytes": ms.HeapInuse,
			"num_gc":           ms.NumGC,
		},
	}
	if !healthy {
		response.ServiceUnavailable(c, "unhealthy", data)
		return
	}
	response.Success(c, data)
}
