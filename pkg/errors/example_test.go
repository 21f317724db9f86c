package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeSchema, "columns have different lengths").
		WithDetail("column", 2).
		WithDetail("rows", 7)

	fmt.Println(err.Error())

	// Output:
	// schema: columns have different lengths
}

// ExampleWrap shows how to wrap a source error and test its category.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read events.csv")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("file error")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("truncated input")
	}

	// Output:
	// file error
	// truncated input
}
