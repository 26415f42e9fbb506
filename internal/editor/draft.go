package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"adboard/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldImageURL    = "imageUrl"
)

var ErrUnknownField = errors.New("unknown draft field")

// Draft is the editable copy of an ad. Price may be NaN while the user is still typing.
type Draft struct {
	Title       string
	Description string
	Price       float64
	ImageURL    string
}

type draftJSON struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    string   `json:"imageUrl"`
}

func (d Draft) MarshalJSON() ([]byte, error) {
	out := draftJSON{Title: d.Title, Description: d.Description, ImageURL: d.ImageURL}
	if !math.IsNaN(d.Price) && !math.IsInf(d.Price, 0) {
		out.Price = &d.Price
	}
	return json.Marshal(out)
}

func draftFromAd(ad domain.Ad) Draft {
	return Draft{
		Title:       ad.Title,
		Description: ad.Description,
		Price:       ad.Price,
		ImageURL:    ad.ImageURL,
	}
}

// set updates a single field. Price text that is not a number becomes NaN.
func (d *Draft) set(field, value string) error {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldPrice:
		d.Price = parsePrice(value)
	case FieldImageURL:
		d.ImageURL = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func parsePrice(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return price
}

// Normalize builds the payload emitted on confirm.
func Normalize(d Draft) domain.AdInput {
	price := d.Price
	if !(price > 0) || math.IsInf(price, 0) {
		price = 0
	}

	imageURL := d.ImageURL
	if !strings.HasPrefix(imageURL, "data:") {
		imageURL = strings.TrimSpace(imageURL)
	}

	return domain.AdInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Price:       price,
		ImageURL:    imageURL,
	}
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrValidation, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateInput(v *validator.Validate, in domain.AdInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}
