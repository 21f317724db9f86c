package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// ExampleNewConfig demonstrates creating a configuration with default values.
func ExampleNewConfig() {
	cfg := config.NewConfig("weblog")

	fmt.Printf("Batch Size: %d\n", cfg.Ingest.BatchSize)
	fmt.Printf("Delimiter: %q\n", cfg.Reader.Delimiter)
	fmt.Printf("Time Interval: %d\n", cfg.Query.TimeInterval)

	// Output:
	// Batch Size: 4096
	// Delimiter: ","
	// Time Interval: 3600
}

// ExampleConfig_Validate shows how to validate a configuration before using
// it.
func ExampleConfig_Validate() {
	cfg := config.NewConfig("weblog")
	cfg.Schema = []schema.Field{
		{Name: "id", Type: schema.Int64},
		{Name: "uri", Type: schema.Utf8},
	}
	cfg.EventID.Column = "id"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.EventID.Column = "uri"
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// config: event id column "uri" must be int64, not utf8
}
