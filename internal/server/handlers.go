package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"bps/internal/game"
)

type createGameRequest struct {
	GameID     string `json:"game_id"`
	StakeMint  string `json:"stake_mint"`
	Amount     int64  `json:"amount"`
	Player     string `json:"player"`
	Commitment string `json:"commitment"`
}

type joinGameRequest struct {
	Player     string `json:"player"`
	Commitment string `json:"commitment"`
}

type revealRequest struct {
	Player string `json:"player"`
	Choice string `json:"choice"`
	Secret string `json:"secret"`
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *FiberServer) createGameHandler(c *fiber.Ctx) error {
	var req createGameRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "Invalid request body")
	}
	if req.Player == "" {
		return errorJSON(c, 400, "Player is required")
	}

	commitment, err := game.ParseCommitment(req.Commitment)
	if err != nil {
		return errorJSON(c, 400, "Invalid commitment")
	}

	g, err := s.engine.Create(c.Context(), game.CreateParams{
		GameID:     req.GameID,
		StakeMint:  req.StakeMint,
		Amount:     req.Amount,
		Player:     req.Player,
		Commitment: commitment,
	})
	if err != nil {
		return gameError(c, err)
	}
	return c.Status(201).JSON(g)
}

func (s *FiberServer) getGameHandler(c *fiber.Ctx) error {
	view, err := s.engine.View(c.Context(), c.Params("creator"), c.Params("gameId"))
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(view)
}

func (s *FiberServer) cancelGameHandler(c *fiber.Ctx) error {
	var req callerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "Invalid request body")
	}
	if req.Caller == "" {
		return errorJSON(c, 400, "Caller is required")
	}

	if err := s.engine.Cancel(c.Context(), c.Params("creator"), c.Params("gameId"), req.Caller); err != nil {
		return gameError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Game cancelled and stake refunded"})
}

func (s *FiberServer) joinGameHandler(c *fiber.Ctx) error {
	var req joinGameRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "Invalid request body")
	}
	if req.Player == "" {
		return errorJSON(c, 400, "Player is required")
	}

	commitment, err := game.ParseCommitment(req.Commitment)
	if err != nil {
		return errorJSON(c, 400, "Invalid commitment")
	}

	g, err := s.engine.Join(c.Context(), c.Params("creator"), c.Params("gameId"), game.JoinParams{
		Player:     req.Player,
		Commitment: commitment,
	})
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(g)
}

func (s *FiberServer) revealHandler(c *fiber.Ctx) error {
	var req revealRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "Invalid request body")
	}
	if req.Player == "" {
		return errorJSON(c, 400, "Player is required")
	}

	choice, err := game.ParseChoice(req.Choice)
	if err != nil {
		return errorJSON(c, 400, "Invalid choice")
	}
	secret, err := hex.DecodeString(req.Secret)
	if err != nil {
		return errorJSON(c, 400, "Invalid secret encoding")
	}

	g, err := s.engine.Reveal(c.Context(), c.Params("creator"), c.Params("gameId"), game.RevealParams{
		Player: req.Player,
		Choice: choice,
		Secret: secret,
	})
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(g)
}

func (s *FiberServer) claimHandler(c *fiber.Ctx) error {
	g, err := s.engine.Claim(c.Context(), c.Params("creator"), c.Params("gameId"))
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(g)
}

func (s *FiberServer) adminUnwindHandler(c *fiber.Ctx) error {
	var req callerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "Invalid request body")
	}

	if err := s.engine.AdminUnwind(c.Context(), c.Params("creator"), c.Params("gameId"), req.Caller); err != nil {
		return gameError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Game unwound and stakes refunded"})
}

// Account handlers

func (s *FiberServer) getBalanceHandler(c *fiber.Ctx) error {
	account := c.Params("account")
	balance, err := s.store.Balance(c.Context(), account)
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(fiber.Map{
		"account": account,
		"balance": balance,
	})
}

// setBalanceHandler credits an account (for testing/admin). The ledger
// only moves or mints funds, it never rewrites balances in place.
func (s *FiberServer) setBalanceHandler(c *fiber.Ctx) error {
	account := c.Params("account")

	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, 400, "Invalid request body")
	}

	err := s.store.Atomic(c.Context(), func(tx game.Tx) error {
		return tx.Credit(account, body.Amount)
	})
	if err != nil {
		return gameError(c, err)
	}

	balance, err := s.store.Balance(c.Context(), account)
	if err != nil {
		return gameError(c, err)
	}
	return c.JSON(fiber.Map{
		"account": account,
		"balance": balance,
		"message": "Balance credited successfully",
	})
}

// gameError maps engine errors onto HTTP statuses.
func gameError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return errorJSON(c, 404, err.Error())
	case errors.Is(err, game.ErrUnauthorized):
		return errorJSON(c, 403, err.Error())
	case errors.Is(err, game.ErrDuplicateGame),
		errors.Is(err, game.ErrIllegalState),
		errors.Is(err, game.ErrAlreadyResolved),
		errors.Is(err, game.ErrNotYetClaimable),
		errors.Is(err, game.ErrSelfJoin):
		return errorJSON(c, 409, err.Error())
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidGameID),
		errors.Is(err, game.ErrInvalidReveal),
		errors.Is(err, game.ErrMalformedCommitmentInput),
		errors.Is(err, game.ErrInsufficientBalance):
		return errorJSON(c, 400, err.Error())
	default:
		log.Printf("[SERVER] Internal error: %v", err)
		return errorJSON(c, 500, "Internal server error")
	}
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// WebSocket handler

// gameWebSocketHandler streams transition events to connected clients.
// A client may name a game in the query string to receive its current
// view right after connecting.
func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	account := conn.Query("account", "anonymous")

	log.Printf("[WS] New connection from account: %s", account)

	// Register client with hub
	client := s.hub.RegisterClient(conn, account)

	// Send initial game view if one was requested
	creator := conn.Query("creator")
	gameID := conn.Query("game_id")
	if creator != "" && gameID != "" {
		// websocket handlers run outside a fiber request context
		view, err := s.engine.View(context.Background(), creator, gameID)
		if err == nil {
			client.SendGameView(view)
		}
	}

	// Handle incoming messages
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Read error for account %s: %v", account, err)
			s.hub.UnregisterClient(conn)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg map[string]interface{}
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}

		msgType, ok := clientMsg["type"].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "get_game":
			creator, _ := clientMsg["creator"].(string)
			gameID, _ := clientMsg["game_id"].(string)
			view, err := s.engine.View(context.Background(), creator, gameID)
			if err != nil {
				respJSON, _ := json.Marshal(map[string]string{
					"type":  "error",
					"error": err.Error(),
				})
				conn.WriteMessage(websocket.TextMessage, respJSON)
				continue
			}
			client.SendGameView(view)

		case "ping":
			pongJSON, _ := json.Marshal(map[string]string{"type": "pong"})
			conn.WriteMessage(websocket.TextMessage, pongJSON)
		}
	}
}
