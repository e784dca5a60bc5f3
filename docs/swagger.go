// Package docs Note Taker API
//
// @title  Note Taker API
// @version 0.1.0
// @description Notes organized into color-themed categories.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "note-taker/cmd/server/handlers/httperr"
	_ "note-taker/internal/services/auth"
	_ "note-taker/internal/services/categories"
	_ "note-taker/internal/services/notes"
)

//go:generate swag init -g docs/swagger.go -d ../ -o ./ --parseInternal
