package seed

import (
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/logger"
)

// DefaultCategories are the top level catalog sections created on first start.
var DefaultCategories = []string{
	"Development",
	"Business",
	"Design",
	"Marketing",
	"IT & Software",
	"Personal Development",
	"Photography",
	"Music",
}

func EnsureDefaultCategories(categoryService *service.CategoryService) {
	if categoryService == nil {
		return
	}

	created, err := categoryService.EnsureCategories(DefaultCategories)
	if err != nil {
		logger.Error(err, "Failed to ensure default categories", map[string]interface{}{"created": created})
		return
	}

	if created > 0 {
		logger.Info("Created default categories", map[string]interface{}{"count": created})
	} else {
		logger.Debug("Default categories already present", nil)
	}
}
