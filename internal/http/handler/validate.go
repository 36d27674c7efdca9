package handler

import (
	"regexp"
	"strings"

	"bloggers-platform/internal/http/response"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,}$`)

func validateLogin(login string, msgs []response.ErrorMessage) []response.ErrorMessage {
	login = strings.TrimSpace(login)
	if len(login) < 3 || len(login) > 30 {
		return append(msgs, response.ErrorMessage{Message: "login must be 3-30 characters", Field: "login"})
	}
	return msgs
}

func validatePassword(password string, msgs []response.ErrorMessage) []response.ErrorMessage {
	if len(password) < 6 || len(password) > 72 {
		return append(msgs, response.ErrorMessage{Message: "password must be 6-72 characters", Field: "password"})
	}
	return msgs
}

func validateEmail(email string, msgs []response.ErrorMessage) []response.ErrorMessage {
	if !emailPattern.MatchString(email) {
		return append(msgs, response.ErrorMessage{Message: "email is not valid", Field: "email"})
	}
	return msgs
}
