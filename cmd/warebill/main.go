package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/warehq/warebill/internal/clock"
	"github.com/warehq/warebill/internal/logger"
	"github.com/warehq/warebill/internal/migration"
	"github.com/warehq/warebill/internal/server"
	"github.com/warehq/warebill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// server.Module pulls in config and every domain module.
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
