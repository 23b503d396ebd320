package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidGeometry is returned when a center or radius is out of range.
var ErrInvalidGeometry = errors.New("invalid geometry")

// geometry carries the validation rules for a task's region.
type geometry struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	Radius    float64 `validate:"gt=0"`
}

var validate = validator.New()

// ValidateGeometry checks a center point and radius before they are applied
// to a task.
func ValidateGeometry(lat, lon, radius float64) error {
	err := validate.Struct(geometry{Latitude: lat, Longitude: lon, Radius: radius})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	var msgs []string
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", strings.ToLower(e.Field()), e.Tag(), e.Param(), e.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, strings.Join(msgs, "; "))
}
