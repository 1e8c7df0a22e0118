package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

const notFoundMessage = "Resource not found."

var errInvalidID = core.NewValidationError(nil, core.FieldError{Field: "id", Error: "must be a positive integer"})

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message interface{}

			httpErr *echo.HTTPError
			valErrs validator.ValidationErrors
			valErr     *core.ValidationError
			ruleErr    *core.InvalidRuleError
			persistErr *core.PersistenceError
		)

		switch {
		case core.IsNotFound(err) && !errors.As(err, &persistErr): // a storage failure is never a missing resource
			code = http.StatusNotFound
			message = notFoundMessage
		case errors.Is(err, core.ErrRunInProgress):
			code = http.StatusConflict
			message = core.ErrRunInProgress.Error()
		case errors.As(err, &httpErr):
			if httpErr.Internal != nil {
				if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
					httpErr = herr
				}
			}
			code = httpErr.Code
			message = httpErr.Message
			if code == http.StatusNotFound {
				message = notFoundMessage
			}
		case errors.As(err, &valErrs):
			code = http.StatusBadRequest
			message = core.TranslateValidationErrors(valErrs, translator)
		case errors.As(err, &valErr):
			if valErr.Fields != nil {
				fldErrs := make(map[string]string, len(valErr.Fields))
				for _, fErr := range valErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = valErr.Error()
			}
			code = http.StatusBadRequest
		case errors.As(err, &ruleErr):
			code = http.StatusBadRequest
			message = map[string]string{ruleErr.Field: ruleErr.Reason}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{
				"method":     ctx.Request().Method,
				"path":       ctx.Path(),
				"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
			})

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
