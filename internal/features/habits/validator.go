package habits

import (
	"strings"

	"github.com/xyz-asif/habitstreak/internal/pkg/validator"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.Validation("title is required")
	}
	if !validator.MaxRunes(title, MaxTitleLength) {
		return apperrors.Validationf("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return apperrors.Validation("description is required")
	}
	if !validator.MaxRunes(description, MaxDescriptionLength) {
		return apperrors.Validationf("description must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

func validateCategory(category Category) error {
	if !category.Valid() {
		return apperrors.Validationf("category must be one of Morning, Work, Fitness, Evening, Study; got %q", string(category))
	}
	return nil
}

func validateReminderTime(reminder string) error {
	if strings.TrimSpace(reminder) == "" {
		return apperrors.Validation("reminderTime is required")
	}
	if !validator.IsValidClock(reminder) {
		return apperrors.Validation("reminderTime must be HH:MM in 24-hour format")
	}
	return nil
}

func validateImageURL(imageURL string) error {
	if imageURL != "" && !validator.IsValidURL(imageURL) {
		return apperrors.Validation("imageUrl must be an http(s) URL")
	}
	return nil
}

// ValidateCreate checks every required field of a new habit.
func ValidateCreate(req CreateHabitRequest) error {
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	if err := validateDescription(req.Description); err != nil {
		return err
	}
	if err := validateCategory(req.Category); err != nil {
		return err
	}
	if err := validateReminderTime(req.ReminderTime); err != nil {
		return err
	}
	return validateImageURL(req.ImageURL)
}

// ValidateUpdate checks only the fields present in the patch.
func ValidateUpdate(req UpdateHabitRequest) error {
	if req.Empty() {
		return apperrors.Validation("no editable fields supplied")
	}
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return err
		}
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return err
		}
	}
	if req.Category != nil {
		if err := validateCategory(*req.Category); err != nil {
			return err
		}
	}
	if req.ReminderTime != nil {
		if err := validateReminderTime(*req.ReminderTime); err != nil {
			return err
		}
	}
	if req.ImageURL != nil {
		return validateImageURL(*req.ImageURL)
	}
	return nil
}

// ParseCategoryFilter accepts an empty value as "All".
func ParseCategoryFilter(raw string) (Category, error) {
	if raw == "" || Category(raw) == CategoryAll {
		return CategoryAll, nil
	}
	c := Category(raw)
	if err := validateCategory(c); err != nil {
		return "", err
	}
	return c, nil
}
