package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/homekeep/internal/inventory"
	"github.com/dukerupert/homekeep/internal/repository"
	"github.com/dukerupert/homekeep/internal/shopping"
	"github.com/dukerupert/homekeep/internal/websocket"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizer is implemented by request bodies that trim input before
// validation.
type normalizer interface {
	normalize()
}

// base carries what every resource handler needs.
type base struct {
	hub    websocket.Broadcaster
	logger *slog.Logger
}

func (b base) broadcast(entity, action, id string, extra map[string]any) {
	if b.hub != nil {
		b.hub.Broadcast(websocket.NewMessage(entity, action, id, extra))
	}
}

// fail maps a use-case error to a response. action reads like "update
// task" and resource like "task".
func (b base) fail(w http.ResponseWriter, err error, action, resource string) {
	var ruleErr *shopping.RuleError
	switch {
	case shopping.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage(err, resource))
	case errors.As(err, &ruleErr):
		writeError(w, http.StatusConflict, ruleErr.Error())
	case errors.Is(err, inventory.ErrNotNeeded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrOpenListExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		b.logger.Error("failed to "+action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// notFoundMessage names the missing referenced entity when the error says
// which one, otherwise the resource itself.
func notFoundMessage(err error, resource string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "home area "):
		return "home area not found"
	case strings.Contains(msg, "inventory item") && resource != "inventory item":
		return "inventory item not found"
	}
	return resource + " not found"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// decode reads a JSON body into dst and validates it. On failure it writes
// a 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid request")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must not be empty"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// idParam returns the {id} path value.
func idParam(r *http.Request) string {
	return r.PathValue("id")
}
