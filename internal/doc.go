// Package internal implements the autoforge admin application.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/autoforge" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: owns the chi router, the model registry, the store and the serve loop
//   - Context: request/response access, flash messages and logging for one request
//   - Router: the GET/POST/Route/Mount subset handlers use to declare routes
//   - Handler: a type that declares extra routes next to the admin
//   - Middleware and ErrorHandler: cross-cutting wrappers and error rendering
//
// # Dispatch
//
// Every registered model is served below an optional prefix:
//
//	/{model}/{action}
//	/{model}/{action}/{id}
//
// The action keyword is parsed into a model.Action and checked by Eligible:
// mutating actions (create, update, destroy, mtm_update) need POST, the
// normalized action must be supported by the model, and mtm_edit needs a
// standalone association. Anything else fails with ErrUnhandled, which the
// default error handler answers with 404 "Unhandled Request".
//
// The id segment names a record for show, edit, update, destroy and the
// association actions, and a 1-based page for browse and search. Record
// selection forms submit it as ?id= instead.
//
// # Pages
//
// GET pages render the tab strip, flash banners and the action body as
// plain HTML. htmx partial requests get the body without the document
// chrome. Successful POSTs set a flash message and redirect; validation
// failures re-render the form with status 422.
//
// # Errors
//
// Handlers return errors. ToHTTPError classifies them:
//
//	ErrUnhandled              404 Unhandled Request
//	model.ErrNotFound         404 Record Not Found
//	assoc.ErrStaleReference   409
//	assoc.ErrUnsavedParent    400
//	*HTTPError                its own code
//	anything else             500
package internal
