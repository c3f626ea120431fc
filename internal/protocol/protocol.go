// Package protocol defines the JSON wire contract between the back office and the sheet service.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ActionGetData = "getData"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Read names, one per sheet.
const (
	DataTypeJobQueue        = "JOB_QUEUE"
	DataTypeTaskList        = "TASK_LIST"
	DataTypeUserCredentials = "USER_CREDENTIALS"
)

type Action string

const (
	ActionAdd    Action = "ADD"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

type Entity string

const (
	EntityOrder Entity = "ORDER"
	EntityTask  Entity = "TASK"
	EntityUser  Entity = "USER"
)

// Request is the single request shape for reads and writes.
// A request without Action is a write.
type Request struct {
	AppToken string          `json:"appToken"`
	DataType string          `json:"dataType"`
	Action   string          `json:"action,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (r Request) IsRead() bool {
	return r.Action == ActionGetData
}

// Response is returned with HTTP 200 for both outcomes.
type Response struct {
	Result string          `json:"result"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	// Code is a machine-readable companion to Error.
	Code string `json:"code,omitempty"`
}

func (r Response) OK() bool {
	return r.Result == ResultSuccess
}

// Success wraps rows in a success response.
func Success(rows any) (Response, error) {
	if rows == nil {
		return Response{Result: ResultSuccess}, nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return Response{}, fmt.Errorf("encode rows: %w", err)
	}
	return Response{Result: ResultSuccess, Data: data}, nil
}

func Failure(code, message string) Response {
	return Response{Result: ResultError, Error: message, Code: code}
}

// WriteDataType builds names such as ADD_ORDER.
func WriteDataType(action Action, entity Entity) string {
	return string(action) + "_" + string(entity)
}

// ParseDataType splits a write name into its action and entity. The entity is
// everything after the first underscore. Neither part is checked against the
// known values; callers decide how to reject unknown ones.
func ParseDataType(dataType string) (Action, Entity, error) {
	action, entity, ok := strings.Cut(dataType, "_")
	if !ok || action == "" || entity == "" {
		return "", "", fmt.Errorf("malformed data type %q", dataType)
	}
	return Action(action), Entity(entity), nil
}

// IDPayload is the data of a DELETE request.
type IDPayload struct {
	ID string `json:"id"`
}
