package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/platform/neo4jdb"
	"github.com/stoalearn/stoa-backend/internal/realtime/bus"
)

// Clients holds optional external connections. Both are env-gated: the
// Redis bus activates on REDIS_ADDR, the Neo4j mirror on NEO4J_URI.
// Either may be nil and every consumer tolerates that.
type Clients struct {
	SSEBus bus.Bus
	Graph  *neo4jdb.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var sseBus bus.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := bus.NewSSEBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	// Neo4j
	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		if sseBus != nil {
			_ = sseBus.Close()
		}
		return Clients{}, fmt.Errorf("init neo4j client: %w", err)
	}

	return Clients{
		SSEBus: sseBus,
		Graph:  graph,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Graph != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Graph.Close(ctx)
		cancel()
	}
}
