// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/sse"
)

// SSE event names.
const (
	eventDelta = "delta"
	eventDone  = "done"
	eventError = "error"
)

type deltaEvent struct {
	Content string `json:"content"`
}

type errorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// streamRun performs the streamed operation. It forwards deltas to
// onDelta and returns the payload of the final "done" event.
type streamRun func(ctx context.Context, onDelta chat.DeltaFunc) (interface{}, error)

// serveStream opens the event stream on the first delta, so errors raised
// before any output (validation, ownership, ended conversations) still
// get the regular JSON envelope and status code.
func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request, run streamRun) {
	ctx := r.Context()
	if h.cfg.Server.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Server.StreamTimeout)
		defer cancel()
	}

	var sw *sse.Writer
	open := func() error {
		if sw != nil {
			return nil
		}
		var err error
		sw, err = sse.NewWriter(w)
		return err
	}

	result, err := run(ctx, func(delta string) error {
		if err := open(); err != nil {
			return err
		}
		return sw.Event(eventDelta, deltaEvent{Content: delta})
	})

	if err != nil {
		if sw == nil {
			if errors.Is(err, sse.ErrStreamingUnsupported) {
				NewResponseWriter(w, r).InternalError("streaming is not supported")
				return
			}
			respondError(w, r, err)
			return
		}
		if errors.Is(err, context.Canceled) {
			logging.Ctx(ctx).Debug().Msg("stream client disconnected")
			return
		}
		code, msg := streamErrorCode(err)
		if werr := sw.Event(eventError, errorEvent{Code: code, Message: msg}); werr != nil {
			logging.Ctx(ctx).Debug().Err(werr).Msg("failed to write stream error event")
		}
		return
	}

	// Replies with no deltas still produce a well-formed stream.
	if err := open(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sw.Event(eventDone, result); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("failed to write stream done event")
	}
}

func streamErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeServiceUnavailable, "stream timed out"
	default:
		return ErrCodeExternalServiceFail, "AI service failed while streaming"
	}
}
