package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ortbridge/pkg/types"
)

const (
	channelWriteWait = 10 * time.Second
	// channelBacklog bounds frames read ahead of the call being served.
	channelBacklog = 32
	// codeInvalidArgument is reported for frames that are not a MethodCall.
	codeInvalidArgument = "INVALID_ARGUMENT"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts same-origin upgrades and origins allowed by CORS.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if originAllowed(origin) {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	return strings.EqualFold(host, r.Host)
}

// channelHandler serves GET /channel. Each text frame carries one MethodCall;
// replies are written in the order calls arrive. A peer that disconnects
// cancels the call being served.
func channelHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(r)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error.
			log.Error().Err(err).Msg("channel upgrade failed")
			return
		}
		defer conn.Close()
		channelConnections.Inc()
		defer channelConnections.Dec()
		conn.SetReadLimit(maxBodyBytes)

		// Hijacked connections never cancel r.Context(); the reader cancels
		// ctx instead when the peer goes away, aborting an in-flight call.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		// Unblock the reader on shutdown.
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		log.Info().Msg("channel open")
		defer log.Info().Msg("channel closed")

		frames := make(chan []byte, channelBacklog)
		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			defer close(frames)
			defer cancel()
			for {
				mt, frame, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
						log.Error().Err(err).Msg("channel read")
					}
					return
				}
				if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
					continue
				}
				select {
				case frames <- frame:
				case <-ctx.Done():
					return
				}
			}
		}()
		defer func() {
			_ = conn.Close()
			<-readerDone
		}()

		for frame := range frames {
			if ctx.Err() != nil {
				return
			}
			res := serveFrame(ctx, svc, log, frame)
			if ctx.Err() != nil {
				log.Debug().Str("id", res.ID).Msg("peer gone, dropping reply")
				return
			}
			out, err := json.Marshal(res)
			if err != nil {
				log.Error().Err(err).Msg("channel encode")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(channelWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				log.Error().Err(err).Msg("channel write")
				return
			}
		}
	}
}

func serveFrame(ctx context.Context, svc Service, log zerolog.Logger, frame []byte) types.MethodResult {
	var call types.MethodCall
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()
	if err := dec.Decode(&call); err != nil {
		return types.MethodResult{Error: &types.MethodError{Code: codeInvalidArgument, Message: "invalid JSON frame"}}
	}
	if strings.TrimSpace(call.Method) == "" {
		return types.MethodResult{ID: call.ID, Error: &types.MethodError{Code: codeInvalidArgument, Message: "method is required"}}
	}
	cctx, cancel := callContext(ctx)
	defer cancel()
	cctx = log.WithContext(cctx)
	start := time.Now()
	res := svc.Dispatch(cctx, call)
	logResult(log.Debug(), res, time.Since(start))
	if res.Error != nil && res.Error.Code == codeTooBusy {
		IncrementBackpressure("channel")
	}
	return res
}

// logResult finishes ev with the call outcome.
func logResult(ev *zerolog.Event, res types.MethodResult, dur time.Duration) {
	code := "OK"
	switch {
	case res.NotImplemented:
		code = "NOT_IMPLEMENTED"
	case res.Error != nil:
		code = res.Error.Code
	}
	ev.Str("id", res.ID).Str("code", code).Dur("dur", dur).Msg("call end")
}
