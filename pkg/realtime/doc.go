// Package realtime composes one client session: a connection manager per
// endpoint, the notification and location channels on top of them, the REST
// client and the navigation resolver. A Session replaces process-wide
// singletons; create one per signed-in user and Close it on sign-out.
//
//	var cfg realtime.Config
//	config.MustLoad(&cfg)
//
//	s, err := realtime.New(cfg,
//		realtime.WithLogger(log),
//		realtime.WithProvider(location.NewSimulatedProvider(location.DefaultRoute())),
//	)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	if err := s.Start(ctx, userID); err != nil {
//		return err
//	}
package realtime
