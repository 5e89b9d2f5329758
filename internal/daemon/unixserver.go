package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// SocketHandler processes one unix-socket request.
type SocketHandler interface {
	HandleSocket(context.Context, SocketRequest) SocketResponse
}

// ServeUnix accepts unix-socket clients until ctx is cancelled or listener
// is closed, one goroutine per connection, each handling a single
// newline-delimited JSON request/response.
func ServeUnix(ctx context.Context, listener net.Listener, handler SocketHandler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept unix connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()

			reader := bufio.NewReader(c)
			line, err := reader.ReadBytes('\n')
			if err != nil {
				_ = json.NewEncoder(c).Encode(SocketResponse{Success: false, Error: fmt.Sprintf("read request: %v", err)})
				return
			}

			var req SocketRequest
			if err := json.Unmarshal(line, &req); err != nil {
				_ = json.NewEncoder(c).Encode(SocketResponse{Success: false, Error: fmt.Sprintf("decode request: %v", err)})
				return
			}

			resp := handler.HandleSocket(ctx, req)
			_ = json.NewEncoder(c).Encode(resp)
		}(conn)
	}
}
