package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jaketodo/backend/internal/todos"
)

// createPayload mirrors the external creation shape. Pointer members
// distinguish omitted fields from supplied ones so validation can name
// exactly what is wrong.
type createPayload struct {
	Description *string `json:"description"`
	DueDateText *string `json:"due_date_text"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`
	Priority    *int    `json:"priority"`
	GcalEventID *string `json:"gcal_event_id"`
}

type bulkCreatePayload struct {
	Todos []createPayload `json:"todos"`
}

// fieldErrors maps an offending field name to the reason it was
// rejected. A nil map means the payload validated cleanly.
type fieldErrors map[string]string

func (p createPayload) toInput() (todos.CreateInput, fieldErrors) {
	problems := fieldErrors{}
	input := todos.CreateInput{
		DueDateText: p.DueDateText,
		Notes:       p.Notes,
		GcalEventID: p.GcalEventID,
	}

	if p.Description == nil {
		problems["description"] = "is required"
	} else if description, err := todos.NewDescription(*p.Description); err != nil {
		problems["description"] = "must not be empty"
	} else {
		input.Description = description
	}

	input.Priority = todos.PriorityDefault
	if p.Priority != nil {
		priority, err := todos.NewPriority(*p.Priority)
		if err != nil {
			problems["priority"] = "must be between 1 and 4"
		} else {
			input.Priority = priority
		}
	}

	if p.DueDate != nil {
		dueDate, err := todos.ParseDueDate(*p.DueDate)
		if err != nil {
			problems["due_date"] = "must be an ISO date (YYYY-MM-DD)"
		} else {
			input.DueDate = &dueDate
		}
	}

	if len(problems) == 0 {
		return input, nil
	}
	return todos.CreateInput{}, problems
}

// toInputs validates every element before reporting success; one bad
// element rejects the whole batch so nothing is persisted.
func (p bulkCreatePayload) toInputs() ([]todos.CreateInput, fieldErrors) {
	if len(p.Todos) == 0 {
		return nil, fieldErrors{"todos": "must contain at least one element"}
	}

	problems := fieldErrors{}
	inputs := make([]todos.CreateInput, 0, len(p.Todos))
	for index, element := range p.Todos {
		input, elementProblems := element.toInput()
		for field, reason := range elementProblems {
			problems[fmt.Sprintf("todos[%d].%s", index, field)] = reason
		}
		inputs = append(inputs, input)
	}

	if len(problems) == 0 {
		return inputs, nil
	}
	return nil, problems
}

var nullLiteral = []byte("null")

func isNullLiteral(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), nullLiteral)
}

// updateInputFromJSON builds a partial update from the raw request
// body. Key presence alone signals intent to change, so the body is
// decoded field by field rather than into a struct; an explicit null
// clears a nullable column, while an omitted key leaves it untouched.
func updateInputFromJSON(body []byte) (todos.UpdateInput, fieldErrors) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return todos.UpdateInput{}, fieldErrors{"body": "must be a JSON object"}
	}

	problems := fieldErrors{}
	var input todos.UpdateInput

	if value, present := raw["description"]; present {
		if isNullLiteral(value) {
			problems["description"] = "must not be null"
		} else if description, ok := decodeString(value, "description", problems); ok {
			if validated, err := todos.NewDescription(description); err != nil {
				problems["description"] = "must not be empty"
			} else {
				input.Description = todos.SetValue(validated)
			}
		}
	}

	if value, present := raw["due_date_text"]; present {
		if isNullLiteral(value) {
			input.DueDateText = todos.SetNull[string]()
		} else if text, ok := decodeString(value, "due_date_text", problems); ok {
			input.DueDateText = todos.SetValue(text)
		}
	}

	if value, present := raw["due_date"]; present {
		if isNullLiteral(value) {
			input.DueDate = todos.SetNull[time.Time]()
		} else if text, ok := decodeString(value, "due_date", problems); ok {
			if dueDate, err := todos.ParseDueDate(text); err != nil {
				problems["due_date"] = "must be an ISO date (YYYY-MM-DD)"
			} else {
				input.DueDate = todos.SetValue(dueDate)
			}
		}
	}

	if value, present := raw["notes"]; present {
		if isNullLiteral(value) {
			input.Notes = todos.SetNull[string]()
		} else if text, ok := decodeString(value, "notes", problems); ok {
			input.Notes = todos.SetValue(text)
		}
	}

	if value, present := raw["priority"]; present {
		if isNullLiteral(value) {
			problems["priority"] = "must not be null"
		} else {
			var number int
			if err := json.Unmarshal(value, &number); err != nil {
				problems["priority"] = "must be an integer"
			} else if priority, err := todos.NewPriority(number); err != nil {
				problems["priority"] = "must be between 1 and 4"
			} else {
				input.Priority = todos.SetValue(priority)
			}
		}
	}

	if value, present := raw["gcal_event_id"]; present {
		if isNullLiteral(value) {
			input.GcalEventID = todos.SetNull[string]()
		} else if text, ok := decodeString(value, "gcal_event_id", problems); ok {
			input.GcalEventID = todos.SetValue(text)
		}
	}

	if len(problems) == 0 {
		return input, nil
	}
	return todos.UpdateInput{}, problems
}

func decodeString(raw json.RawMessage, field string, problems fieldErrors) (string, bool) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		problems[field] = "must be a string"
		return "", false
	}
	return value, true
}

type todoPayload struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	DueDateText *string `json:"due_date_text"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`
	Priority    int     `json:"priority"`
	Status      string  `json:"status"`
	GcalEventID *string `json:"gcal_event_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CompletedAt *string `json:"completed_at"`
}

type todoListPayload struct {
	Todos []todoPayload `json:"todos"`
	Count int           `json:"count"`
}

type deletePayload struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type purgePayload struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

func newTodoPayload(record todos.Todo) todoPayload {
	payload := todoPayload{
		ID:          record.ID,
		Description: record.Description,
		DueDateText: record.DueDateText,
		Notes:       record.Notes,
		Priority:    record.Priority.Int(),
		Status:      string(record.Status),
		GcalEventID: record.GcalEventID,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   record.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if record.DueDate != nil {
		formatted := record.DueDate.UTC().Format(todos.DueDateLayout)
		payload.DueDate = &formatted
	}
	if record.CompletedAt != nil {
		formatted := record.CompletedAt.UTC().Format(time.RFC3339)
		payload.CompletedAt = &formatted
	}
	return payload
}

func newTodoListPayload(records []todos.Todo) todoListPayload {
	payload := todoListPayload{
		Todos: make([]todoPayload, 0, len(records)),
		Count: len(records),
	}
	for _, record := range records {
		payload.Todos = append(payload.Todos, newTodoPayload(record))
	}
	return payload
}
