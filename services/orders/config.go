package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSuppliers = "TechWorld=http://localhost:5101,ElectroCom=http://localhost:5102,GadgetCentral=http://localhost:5103"

// SupplierConfig identifica um fornecedor: nome de exibição e URL base
type SupplierConfig struct {
	Name    string
	BaseURL string
}

// Config reúne a configuração do serviço de pedidos
type Config struct {
	Port            string
	ServiceName     string
	OTLPEndpoint    string
	OTelEnabled     bool
	Suppliers       []SupplierConfig
	SupplierTimeout time.Duration
	OrderTimeout    time.Duration
}

// LoadConfig lê a configuração das variáveis de ambiente
func LoadConfig() (Config, error) {
	suppliers, err := ParseSuppliers(getEnv("SUPPLIERS", defaultSuppliers))
	if err != nil {
		return Config{}, err
	}

	supplierTimeout, err := getDurationEnv("SUPPLIER_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	orderTimeout, err := getDurationEnv("ORDER_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	otelEnabled, err := strconv.ParseBool(getEnv("OTEL_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OTEL_ENABLED: %w", err)
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		ServiceName:     getEnv("SERVICE_NAME", "orders-service"),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelEnabled:     otelEnabled,
		Suppliers:       suppliers,
		SupplierTimeout: supplierTimeout,
		OrderTimeout:    orderTimeout,
	}, nil
}

// ParseSuppliers interpreta a lista "Nome=URL,Nome=URL". A ordem da lista é preservada.
func ParseSuppliers(raw string) ([]SupplierConfig, error) {
	var suppliers []SupplierConfig
	seen := make(map[string]bool)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, url, ok := strings.Cut(entry, "=")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid supplier entry %q, expected Name=URL", entry)
		}

		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate supplier %q", name)
		}
		seen[key] = true

		suppliers = append(suppliers, SupplierConfig{Name: name, BaseURL: url})
	}

	if len(suppliers) == 0 {
		return nil, fmt.Errorf("no suppliers configured")
	}
	return suppliers, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
