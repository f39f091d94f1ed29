package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config reúne a configuração do serviço do fornecedor
type Config struct {
	Port         string
	ServiceName  string
	OTLPEndpoint string
	OTelEnabled  bool
	SupplierName string
	OrderPrefix  string
	Storage      string
	DatabaseDSN  string
}

// LoadConfig lê a configuração das variáveis de ambiente
func LoadConfig() (Config, error) {
	supplierName := getEnv("SUPPLIER_NAME", "TechWorld")
	catalog, err := CatalogFor(supplierName)
	if err != nil {
		return Config{}, err
	}

	storage := strings.ToLower(getEnv("STORAGE", StorageMemory))
	if storage != StorageMemory && storage != StoragePostgres {
		return Config{}, fmt.Errorf("invalid STORAGE %q, expected %s or %s", storage, StorageMemory, StoragePostgres)
	}

	otelEnabled, err := strconv.ParseBool(getEnv("OTEL_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OTEL_ENABLED: %w", err)
	}

	return Config{
		Port:         getEnv("PORT", "5101"),
		ServiceName:  getEnv("SERVICE_NAME", strings.ToLower(catalog.Name)+"-supplier"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelEnabled:  otelEnabled,
		SupplierName: catalog.Name,
		OrderPrefix:  getEnv("SUPPLIER_ORDER_PREFIX", catalog.OrderPrefix),
		Storage:      storage,
		DatabaseDSN: fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable&pool_max_conns=10&pool_min_conns=2",
			getEnv("DATABASE_USER", "root"),
			getEnv("DATABASE_PASSWORD", "pass"),
			getEnv("DATABASE_HOST", "localhost"),
			getEnv("DATABASE_PORT", "5432"),
			getEnv("DATABASE_NAME", "supplier_db"),
		),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
