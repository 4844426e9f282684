// Package broadcast provides typed, non-blocking in-process fan-out.
//
// The notification and location channels use it to hand events to any number
// of UI-side consumers without letting a slow consumer stall the connection's
// read loop: a subscriber whose buffer is full simply misses the message and
// its Dropped counter increases.
//
//	b := broadcast.NewMemoryBroadcaster[location.Sample](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx) // removed automatically when ctx ends
//	go func() {
//	    for msg := range sub.Receive(ctx) {
//	        render(msg.Data)
//	    }
//	}()
//
//	b.Publish(ctx, sample)
package broadcast
