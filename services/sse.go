// services/sse.go
package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const sseKeepaliveInterval = 15 * time.Second

func setSSEHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx
}

// writeSSEEvent marshals v and flushes it as one named SSE event. A flush
// error means the client disconnected.
func writeSSEEvent(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeSSEKeepalive(w *bufio.Writer) error {
	if _, err := w.WriteString(":\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
