package controller

import (
	"errors"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	var replay *model.ReplayError
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotInGame):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrGameFull), errors.Is(err, service.ErrAlreadyConnected):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidColor), errors.Is(err, service.ErrInvalidTimeControl):
		return fiber.StatusBadRequest
	case errors.As(err, &replay),
		errors.Is(err, model.ErrIllegalMove),
		errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrGameNotActive),
		errors.Is(err, model.ErrInvalidSquare),
		errors.Is(err, model.ErrNoPieceAt),
		errors.Is(err, model.ErrUnknownPieceLetter),
		errors.Is(err, model.ErrInvalidPromotion),
		errors.Is(err, model.ErrPromotionChoiceNeeded),
		errors.Is(err, model.ErrTimeExpired),
		errors.Is(err, service.ErrWaitingForOpponent):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	var replay *model.ReplayError
	if errors.As(err, &replay) {
		body["ply"] = replay.Ply
		body["move"] = replay.Move
	}
	return c.Status(statusFor(err)).JSON(body)
}
