// Package stomp maintains a STOMP 1.2 session over a WebSocket and keeps a
// declarative registry of subscriptions alive across reconnects.
//
// A Manager owns exactly one connection to one endpoint. Connect activates a
// background loop that dials, performs the CONNECT handshake, replays every
// registered subscription, and serves inbound frames until the socket is lost.
// Lost connections are retried after a fixed delay until Disconnect is called.
//
//	mgr := stomp.NewManager("ws://api.example.com/ws-notificacoes",
//		stomp.WithLogger(log),
//		stomp.WithConnectHeader("Authorization", "Bearer "+token),
//	)
//	_, _ = mgr.Subscribe("/topic/notificacoes", func(m stomp.Message) {
//		fmt.Println(string(m.Body))
//	})
//	if err := mgr.Connect(ctx); err != nil {
//		return err
//	}
//	defer mgr.Disconnect()
//
// Subscriptions may be declared before or after Connect. Each is sent once per
// established connection. Publish never buffers: outside the Connected state
// it drops the payload and returns ErrNotConnected.
//
// Connection problems are reported through OnStateChange only; Subscribe and
// Publish never return socket errors.
package stomp
