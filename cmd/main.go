package main

import (
	"github.com/lshigami/polls/internal/app"
	"go.uber.org/fx"
)

// @title Polls API
// @version 1.0
// @description JSON side of the polls site: public vote results and the staff-only question admin.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	fx.New(app.Module).Run()
}
