// Command survey runs the employee satisfaction survey: the HTTP API, the
// interactive kiosk questionnaire and the operator tools.
//
// @title          Employee Satisfaction Survey API
// @version        1.0
// @description    Anonymous ten-question satisfaction survey with one submission per device, statistics dashboard and QR distribution.
// @BasePath       /api/v1
// @schemes        http https
// @produce        json
package main

//go:generate swag init -g main.go -d ./,../../internal/http/handlers -o ../../docs

import (
	"context"
	"os"

	_ "github.com/tbourn/go-survey-backend/docs"
	"github.com/tbourn/go-survey-backend/internal/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(context.Background(), version))
}
