package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephgoksu/geotask/internal/app"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/spf13/viper"
)

// PrintError prints an error message without exiting, allowing for recovery.
// The technical error is shown only with --verbose.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// userMessage turns an error into the line shown without --verbose.
func userMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrTaskNotFound), errors.Is(err, app.ErrItemNotFound):
		return "Something went wrong: that task or item does not exist."
	case errors.Is(err, app.ErrSessionActive):
		return "Another edit is in progress. Try again once it finishes."
	case errors.Is(err, geo.ErrInvalidGeometry):
		return "Invalid region: " + err.Error()
	case errors.Is(err, permission.ErrPermissionDenied):
		return "Location permission is not granted. Run: geotask permissions request"
	}
	return "Error: " + err.Error()
}
