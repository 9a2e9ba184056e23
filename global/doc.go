// Package global holds at most one process-wide *di.Container.
//
// It exists for applications that prefer a single ambient container over
// passing one around. Libraries should take a *di.Container instead.
//
//	if err := global.Start([]*di.Module{app.Module()}); err != nil {
//		return err
//	}
//	defer global.Stop()
//
//	svc, err := global.Resolve[*app.Service]()
package global
