package api

import (
	"strings"

	"mr-tracker/internal/services"

	"github.com/gofiber/fiber/v2"
)

const defaultWeightDays = 30

func (handler *Handler) GetLog(c *fiber.Ctx) error {
	day, err := handler.services.Day.Day(c.UserContext(), c.Query("date"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(day)
}

func (handler *Handler) PostActivity(c *fiber.Ctx) error {
	var action services.ActivityAction
	if err := c.BodyParser(&action); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if action.ActivityID == "" || action.Action == "" {
		return apiError(c, fiber.StatusBadRequest, "activityId and action are required")
	}

	result, err := handler.services.Activity.Apply(c.UserContext(), action)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(result)
}

func (handler *Handler) GetStats(c *fiber.Ctx) error {
	stats, err := handler.services.Stats.Stats(c.UserContext(), c.Query("period", services.PeriodWeek))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stats)
}

func (handler *Handler) GetWeight(c *fiber.Ctx) error {
	days := c.QueryInt("days", defaultWeightDays)
	history, err := handler.services.Stats.WeightHistory(c.UserContext(), days)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(history)
}

// PostWeeklyReport is called by an external scheduler with the shared
// secret as a bearer token.
func (handler *Handler) PostWeeklyReport(c *fiber.Ctx) error {
	credential, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok {
		credential = ""
	}
	result, err := handler.services.Report.Trigger(c.UserContext(), credential)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(result)
}
