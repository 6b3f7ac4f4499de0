package provider

import (
	"github.com/rs/zerolog"

	"coinwatch/internal/symbols"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testTable() *symbols.Table {
	return symbols.DefaultTable()
}
