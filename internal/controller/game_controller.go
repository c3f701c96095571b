package controller

import (
	"github.com/benbeisheim/chess-backend/internal/middleware"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const pgnContentType = "application/x-chess-pgn"

type GameController struct {
	gameService *service.GameService
	log         zerolog.Logger
}

func NewGameController(gameService *service.GameService, log zerolog.Logger) *GameController {
	return &GameController{gameService: gameService, log: log}
}

type importRequest struct {
	PGN string `json:"pgn"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req service.CreateGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	gameID, color, err := gc.gameService.CreateGame(middleware.PlayerID(c), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
		"color":   color,
	})
}

func (gc *GameController) ImportGame(c *fiber.Ctx) error {
	var req importRequest
	if err := c.BodyParser(&req); err != nil || req.PGN == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pgn is required",
		})
	}

	gameID, color, err := gc.gameService.ImportGame(middleware.PlayerID(c), req.PGN)
	if err != nil {
		gc.log.Warn().Err(err).Msg("import rejected")
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game imported",
		"game_id": gameID,
		"color":   color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	color, err := gc.gameService.JoinGame(gameID, middleware.PlayerID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(gameState)
}

// ExportPGN serves the movetext; ?compress=zstd returns it zstd-encoded.
func (gc *GameController) ExportPGN(c *fiber.Ctx) error {
	compress := c.Query("compress") == "zstd"
	body, err := gc.gameService.ExportPGN(c.Params("gameId"), compress)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, pgnContentType)
	if compress {
		c.Set(fiber.HeaderContentEncoding, "zstd")
	}
	return c.Send(body)
}
