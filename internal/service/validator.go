package service

import (
	"fmt"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// ValidationResult 结构校验结果，Errors 顺序与检查顺序一致
type ValidationResult struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors"`
}

// ValidateEvent runs every structural check and collects all failures.
func ValidateEvent(e *model.Event) ValidationResult {
	errs := []string{}

	if e.ActorID == "" {
		errs = append(errs, "actor_id is required")
	}
	if e.Type == "" {
		errs = append(errs, "type is required")
	}
	if !e.Type.Valid() {
		errs = append(errs, fmt.Sprintf("Invalid event type: %s", e.Type))
	}
	if e.TargetID == "" {
		errs = append(errs, "target_id is required")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
