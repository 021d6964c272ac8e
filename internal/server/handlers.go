package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"jtask/internal/actions"
	"jtask/internal/activity"
	"jtask/internal/output"
)

// Response is the body returned for every action invocation.
type Response struct {
	Result     string   `json:"result"`
	HTML       string   `json:"html,omitempty"`
	Activities []string `json:"activities"`
	Invocation string   `json:"invocation"`
}

// paramError marks a request whose parameters could not be decoded.
type paramError struct{ err error }

func (e *paramError) Error() string { return "invalid parameters: " + e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

type actionFunc func(ctx context.Context, a *actions.Actions, turn actions.Turn, body []byte) (string, error)

// actionTable maps the bot's action names to handlers.
var actionTable = map[string]actionFunc{
	"createTask": func(ctx context.Context, a *actions.Actions, turn actions.Turn, body []byte) (string, error) {
		p, err := bind[actions.CreateParams](body)
		if err != nil {
			return "", err
		}
		return a.CreateTask(ctx, turn, p), nil
	},
	"updateTask": func(ctx context.Context, a *actions.Actions, turn actions.Turn, body []byte) (string, error) {
		p, err := bind[actions.UpdateParams](body)
		if err != nil {
			return "", err
		}
		return a.UpdateTask(ctx, turn, p), nil
	},
	"deleteTask": func(ctx context.Context, a *actions.Actions, turn actions.Turn, body []byte) (string, error) {
		p, err := bind[actions.DeleteParams](body)
		if err != nil {
			return "", err
		}
		return a.DeleteTask(ctx, turn, p), nil
	},
	"queryTask": func(ctx context.Context, a *actions.Actions, turn actions.Turn, body []byte) (string, error) {
		p, err := bind[actions.QueryParams](body)
		if err != nil {
			return "", err
		}
		return a.QueryTask(ctx, turn, p), nil
	},
	"listTasks": func(ctx context.Context, a *actions.Actions, turn actions.Turn, body []byte) (string, error) {
		p, err := bind[actions.ListParams](body)
		if err != nil {
			return "", err
		}
		return a.ListTasks(ctx, turn, p)
	},
}

// bind decodes a JSON body into P. An empty body yields the zero value.
func bind[P any](body []byte) (P, error) {
	var p P
	if len(bytes.TrimSpace(body)) == 0 {
		return p, nil
	}
	if err := binding.JSON.BindBody(body, &p); err != nil {
		return p, &paramError{err: err}
	}
	return p, nil
}

func (s *Server) handleAction(c *gin.Context) {
	convID := c.Param("id")
	name := c.Param("name")
	invocation := uuid.NewString()
	log := s.logger.With("invocation", invocation, "conversation", convID, "action", name)

	run, ok := actionTable[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown action: " + name, "invocation": invocation})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "invocation": invocation})
		return
	}

	ctx := c.Request.Context()
	conv, err := s.store.Conversation(ctx, convID)
	if err != nil {
		log.Error("open conversation", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation state unavailable", "invocation": invocation})
		return
	}

	rec := &activity.Recorder{}
	result, err := run(ctx, s.actions.WithLogger(log), actions.Turn{Conversation: conv, Sink: rec}, body)
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			c.JSON(http.StatusBadRequest, gin.H{"error": pe.Error(), "invocation": invocation})
			return
		}
		log.Error("action failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "invocation": invocation})
		return
	}

	html, err := output.RenderHTML(result)
	if err != nil {
		log.Warn("render html", "err", err)
	}

	log.Debug("action complete", "activities", len(rec.Messages()))
	c.JSON(http.StatusOK, Response{
		Result:     result,
		HTML:       html,
		Activities: rec.Messages(),
		Invocation: invocation,
	})
}
