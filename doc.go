// Package autoforge serves a generated HTML admin for database-backed models.
//
// Models are declared in a manifest or in Go with model.Config. Each one gets
// browse, new, show, edit, delete and search pages plus, when it has
// many-to-many associations, an association editor. Everything is served
// from two routes:
//
//	/{model}/{action}
//	/{model}/{action}/{id}
//
// # Quick Start
//
//	manifest, err := model.LoadManifestFile("models.yaml")
//	if err != nil {
//	    return err
//	}
//	reg, err := manifest.Registry()
//	if err != nil {
//	    return err
//	}
//
//	app := autoforge.New(
//	    autoforge.WithRegistry(reg),
//	    autoforge.WithStore(pgstore.New(pool)),
//	    autoforge.WithPrefix("/admin"),
//	    autoforge.WithMiddleware(middlewares.Recover(), middlewares.CSRF()),
//	    autoforge.WithCSRF(middlewares.CSRFToken),
//	)
//	return app.Run(":8080", autoforge.ShutdownHook(db.Shutdown(pool)))
//
// # Hooks and Filters
//
// Behavior that cannot live in YAML is attached in Go before the registry is
// built:
//
//	manifest.Configure("Artist", func(c *model.Config) {
//	    c.Hooks.BeforeDestroy = func(ctx context.Context, r *model.Record) error {
//	        if r.String("name") == "Protected" {
//	            return errors.New("protected artist")
//	        }
//	        return nil
//	    }
//	})
//
// A hook error aborts the action and the request fails with 500.
//
// # Extra Routes
//
// Handlers registered with WithHandlers are mounted next to the admin, for
// example a metrics exporter:
//
//	func (h metricsHandler) Routes(r autoforge.Router) {
//	    r.Mount("/metrics", promhttp.HandlerFor(h.reg, promhttp.HandlerOpts{}))
//	}
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM and runs ShutdownHook functions after the
// server stopped accepting requests.
package autoforge
