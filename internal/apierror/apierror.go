/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrConflict               ErrorCode = "CONFLICT"
	ErrBadRequest             ErrorCode = "BAD_REQUEST"
	ErrInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrInvalidPayload         ErrorCode = "INVALID_PAYLOAD"
	ErrUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrInternalServer         ErrorCode = "INTERNAL_SERVER_ERROR"
)

// userMessages are the Portuguese texts shown to end users, one per code.
var userMessages = map[ErrorCode]string{
	ErrNotFound:               "Registro não encontrado.",
	ErrConflict:               "A operação conflita com o estado atual.",
	ErrBadRequest:             "Requisição inválida.",
	ErrInvalidInput:           "Os dados informados são inválidos.",
	ErrInvalidPayload:         "O conteúdo recebido é inválido.",
	ErrUnauthorized:           "Você não tem permissão para realizar esta operação.",
	ErrInvalidStateTransition: "Esta ação não é permitida no status atual da transação.",
	ErrInternalServer:         "Ocorreu um erro interno. Tente novamente mais tarde.",
}

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.WithField("code", code).Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func Unauthorized(message string) APIError {
	return NewAPIError(ErrUnauthorized, message, nil)
}

func InvalidPayload(message string, details interface{}) APIError {
	return NewAPIError(ErrInvalidPayload, message, details)
}

func InvalidStateTransition(from, to string) APIError {
	return NewAPIError(ErrInvalidStateTransition, fmt.Sprintf("cannot move transaction from %s to %s", from, to), nil)
}

func NotFound(message string) APIError {
	return NewAPIError(ErrNotFound, message, nil)
}

func Internal(message string, details interface{}) APIError {
	return NewAPIError(ErrInternalServer, message, details)
}

// CodeOf returns the code carried by err, or ErrInternalServer for foreign errors.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// MessageFor returns the user-facing Portuguese message for a code.
func MessageFor(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[ErrInternalServer]
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict, ErrInvalidStateTransition:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest, ErrInvalidPayload:
			return http.StatusBadRequest
		case ErrUnauthorized:
			return http.StatusUnauthorized
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the envelope written to HTTP clients. It never carries
// Details, so persistence errors stay in the logs.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Reason  string    `json:"reason,omitempty"`
}

// Respond converts err into an HTTP status and a client-safe envelope.
func Respond(err error) (int, ErrorResponse) {
	code := CodeOf(err)
	resp := ErrorResponse{Code: code, Message: MessageFor(code)}
	var apiErr APIError
	if errors.As(err, &apiErr) && code != ErrInternalServer {
		resp.Reason = apiErr.Message
	}
	return MapErrorToHTTPStatus(err), resp
}
