package dto

import (
	"fmt"
	"strings"

	"github.com/cesargomez89/toonshelf/internal/constants"
	"github.com/cesargomez89/toonshelf/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateStatus(status string) []ValidationError {
	if status == "" {
		return []ValidationError{{Field: "status", Message: "is required"}}
	}
	if !domain.ReadStatus(status).Valid() {
		names := make([]string, len(domain.ReadStatuses))
		for i, s := range domain.ReadStatuses {
			names[i] = string(s)
		}
		return []ValidationError{{Field: "status", Message: "must be one of: " + strings.Join(names, ", ")}}
	}
	return nil
}

func validatePassword(password string) []ValidationError {
	if password == "" {
		return []ValidationError{{Field: "password", Message: "is required"}}
	}
	if len(password) < constants.MinSafeModePasswordLength {
		return []ValidationError{{Field: "password", Message: fmt.Sprintf("must be at least %d characters", constants.MinSafeModePasswordLength)}}
	}
	return nil
}

func validateImages(images int) []ValidationError {
	if images < 0 {
		return []ValidationError{{Field: "images", Message: "cannot be negative"}}
	}
	return nil
}

func validateOffset(offset int) []ValidationError {
	if offset < 0 {
		return []ValidationError{{Field: "offset", Message: "cannot be negative"}}
	}
	return nil
}

func validateLimit(limit int) []ValidationError {
	if limit < 1 || limit > constants.MaxPageSize {
		return []ValidationError{{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", constants.MaxPageSize)}}
	}
	return nil
}
