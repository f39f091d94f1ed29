package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationIDHeader é o header que acompanha todas as chamadas de um mesmo pedido
const CorrelationIDHeader = "X-Correlation-ID"

const correlationIDKey = "correlation_id"

// CorrelationMiddleware lê o correlation id da requisição (ou gera um novo),
// guarda no contexto do gin e devolve no header da resposta
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := strings.TrimSpace(c.GetHeader(CorrelationIDHeader))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header(CorrelationIDHeader, correlationID)
		c.Next()
	}
}

// correlationIDFrom retorna o correlation id registrado pelo middleware
func correlationIDFrom(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}
