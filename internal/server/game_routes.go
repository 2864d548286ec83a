package server

// RegisterGameRoutes registers the game lifecycle and account routes.
func (s *FiberServer) RegisterGameRoutes() {
	api := s.App.Group("/api/v1")

	games := api.Group("/games")
	games.Post("/", s.createGameHandler)
	games.Get("/:creator/:gameId", s.getGameHandler)
	games.Post("/:creator/:gameId/cancel", s.cancelGameHandler)
	games.Post("/:creator/:gameId/join", s.joinGameHandler)
	games.Post("/:creator/:gameId/reveal", s.revealHandler)
	games.Post("/:creator/:gameId/claim", s.claimHandler)
	games.Post("/:creator/:gameId/unwind", s.adminUnwindHandler)

	api.Get("/accounts/:account/balance", s.getBalanceHandler)
	api.Post("/accounts/:account/balance", s.setBalanceHandler)
}
