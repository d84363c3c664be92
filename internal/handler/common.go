package handler // handler defines http handlers

import (
    "database/sql" // sentinel not-found error from repositories
    "errors"       // errors provides sentinel comparisons
    "net/http"     // HTTP status codes
    "strconv"      // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/loyalty-coupon-book/internal/repository" // repository holds data access layer
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) { // begin getUserID helper
    v := c.Get("user_id") // fetch user_id from context
    switch t := v.(type) { // perform type switch on the value
    case uint64: // when already uint64
        return t, nil // return directly
    case int: // when stored as int
        return uint64(t), nil // convert to uint64
    case int64: // when stored as int64
        return uint64(t), nil // convert to uint64
    case float64: // when stored as float64
        return uint64(t), nil // convert to uint64
    case string: // when stored as string
        if n, err := strconv.ParseUint(t, 10, 64); err == nil { // parse string to uint64
            return n, nil // return parsed number
        }
    } // end type switch
    return 0, errors.New("invalid user_id in context") // return error if value is missing or invalid
}

// pathID parses a numeric :param from the route and reports whether it
// was a valid positive integer.
func pathID(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// writeRepoError translates repository errors into HTTP responses using
// one shared mapping so every endpoint reports the same statuses:
//
//	sql.ErrNoRows           -> 404
//	repository.ErrForbidden -> 403
//	*repository.Rejection   -> 422 with the stable reason code
//	repository.ErrConflict  -> 409 (duplicate claim, favorite, receipt)
//	repository.ErrValidation-> 400
//	anything else           -> 500
//
// The notFound message names the resource so clients get a useful body.
func writeRepoError(c echo.Context, err error, notFound string) error {
    switch {
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFound})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    }
    if rej, ok := repository.AsRejection(err); ok {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":  "rejected",
            "reason": rej.Reason,
        })
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
