package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/scoutgpt/pkg/orchestrator"
	"github.com/go-go-golems/scoutgpt/pkg/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		orch, err := buildOrchestrator()
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/chat", handleChat(orch))
		mux.HandleFunc("/feedback", handleFeedback(orch))

		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			log.Info().Str("addr", addr).Msg("listening")
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		return eg.Wait()
	},
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	Edit      string `json:"edit"`
}

type chatResponse struct {
	Text                 string `json:"text"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
	Parameters           string `json:"parameters,omitempty"`
}

func handleChat(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.SessionID == "" || req.Message == "" {
			httpError(w, http.StatusBadRequest, "session_id and message are required")
			return
		}

		reply, err := orch.ProcessMessage(r.Context(), req.SessionID, req.Message)
		if err != nil {
			var routingErr *router.RoutingError
			if errors.As(err, &routingErr) {
				httpError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat failed")
			httpError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeReply(w, reply)
	}
}

func handleFeedback(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req feedbackRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.SessionID == "" {
			httpError(w, http.StatusBadRequest, "session_id is required")
			return
		}

		reply, err := orch.UpdateToolParameters(r.Context(), req.SessionID, req.Edit)
		if err != nil {
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("feedback failed")
			httpError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeReply(w, reply)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		httpError(w, http.StatusBadRequest, errors.Wrap(err, "decode request").Error())
		return false
	}
	return true
}

func writeReply(w http.ResponseWriter, reply *orchestrator.Reply) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{
		Text:                 reply.Text,
		AwaitingConfirmation: reply.AwaitingConfirmation,
		Parameters:           reply.Parameters,
	})
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
