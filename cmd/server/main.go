// @title        gmail-var-backend API
// @version      1.0
// @description  Email/password authentication with email verification.
// @BasePath     /
package main

import (
	"github.com/Userride/gmail-var-backend/internal/app"
)

func main() {
	app.Run()
}
