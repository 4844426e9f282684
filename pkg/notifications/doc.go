// Package notifications receives typed ride notifications over the live
// connection, keeps them in memory newest-first, and tracks the unread count.
//
// A Channel subscribes to the per-user and broadcast topics once started:
//
//	ch := notifications.NewChannel(mgr, apiClient,
//		notifications.WithLogger(log),
//	)
//	if err := ch.Start(ctx, userID); err != nil {
//		return err
//	}
//	defer ch.Stop()
//
//	sub := ch.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data.Kind, msg.Data.Notification.Payload.Title)
//	}
//
// Inbound messages are parsed defensively: text around a JSON object is
// tolerated, missing timestamps are stamped with the current time, unknown
// type tags are kept as TypeUnknown, and payload fields are normalized once
// into a Payload record regardless of where the server put them.
//
// MarkAsRead updates local state immediately and acknowledges the
// notification on the backend in the background. Background failures are
// logged and delivered on Errors; local state is not rolled back.
package notifications
