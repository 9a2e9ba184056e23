// Package bootstrap runs an application around a DI container.
//
// An App validates its configuration, sets up logging and optional
// OpenTelemetry export, opens a container over the registered modules (or
// starts the global one), runs lifecycle hooks, and tears everything down
// in reverse.
//
// # Quick Start
//
//	var cfg config.Settings
//	app, err := bootstrap.NewAppFromConfig("orders", &cfg, nil,
//	    bootstrap.WithModules(orders.Module()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    svc, err := di.ResolveContext[*orders.Service](ctx, app.Container)
//	    if err != nil {
//	        return err
//	    }
//	    return svc.Sync(ctx)
//	})
package bootstrap
